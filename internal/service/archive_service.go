package service

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/models"
	"github.com/rtdacademy/roster-api/internal/options"
	"github.com/rtdacademy/roster-api/internal/repository"
	"github.com/rtdacademy/roster-api/internal/utils"
)

var (
	ErrAlreadyArchived = errors.New("enrollment is already archived")
	ErrNotArchived     = errors.New("enrollment is not archived")
	ErrSnapshotMissing = errors.New("archive snapshot not found")
)

// archivePayload is the snapshot body: the enrollment, its student, and the
// full status history at archive time.
type archivePayload struct {
	Enrollment models.Enrollment  `json:"enrollment"`
	Student    models.Student     `json:"student"`
	StatusLog  []models.StatusLog `json:"status_log"`
	ArchivedAt time.Time          `json:"archived_at"`
}

// ArchiveService moves enrollments to cold storage and back. A snapshot is
// written before the record is parked in the Archived state, and restore
// rehydrates the record from the snapshot taken at archive time.
type ArchiveService interface {
	Archive(ctx context.Context, actor Actor, enrollmentID uint) (dto.ArchiveResponse, error)
	Restore(ctx context.Context, actor Actor, enrollmentID uint) (dto.EnrollmentResponse, error)
}

type archiveService struct {
	enrollments repository.EnrollmentRepository
	snapshots   repository.ArchiveRepository
	logs        repository.StatusLogRepository
	events      EventPublisher
	logger      zerolog.Logger
	now         func() time.Time
}

// NewArchiveService constructs the archive service.
func NewArchiveService(
	enrollments repository.EnrollmentRepository,
	snapshots repository.ArchiveRepository,
	logs repository.StatusLogRepository,
	events EventPublisher,
	logger zerolog.Logger,
) ArchiveService {
	return &archiveService{
		enrollments: enrollments,
		snapshots:   snapshots,
		logs:        logs,
		events:      events,
		logger:      logger.With().Str("component", "archive_service").Logger(),
		now:         time.Now,
	}
}

func (s *archiveService) Archive(ctx context.Context, actor Actor, enrollmentID uint) (dto.ArchiveResponse, error) {
	enrollment, err := s.enrollments.GetWithStudent(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ArchiveResponse{}, ErrEnrollmentNotFound
		}
		return dto.ArchiveResponse{}, err
	}
	if enrollment.ArchiveSnapshotID != nil {
		return dto.ArchiveResponse{}, ErrAlreadyArchived
	}

	history, err := s.logs.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return dto.ArchiveResponse{}, err
	}

	archivedAt := s.now().UTC()
	payload := archivePayload{
		Enrollment: enrollment,
		Student:    enrollment.Student,
		StatusLog:  history,
		ArchivedAt: archivedAt,
	}

	compressed, rawSize, err := compressSnapshot(payload)
	if err != nil {
		return dto.ArchiveResponse{}, fmt.Errorf("compress snapshot: %w", err)
	}

	snapshot := &models.ArchiveSnapshot{
		ID:           uuid.NewString(),
		EnrollmentID: enrollmentID,
		SummaryKey:   utils.SummaryKey(enrollment.Student.EmailKey, enrollment.CourseID),
		Payload:      compressed,
		RawSize:      rawSize,
	}
	if err := s.snapshots.Create(ctx, snapshot); err != nil {
		return dto.ArchiveResponse{}, err
	}

	// The snapshot is durable before the live record is touched, so a crash
	// here leaves an orphaned snapshot rather than an archived record with
	// no cold copy.
	updated, err := s.enrollments.Transition(ctx, enrollmentID, func(e *models.Enrollment) error {
		e.ActiveFutureArchived = options.StateArchived
		e.ArchiveSnapshotID = &snapshot.ID
		e.ArchivedAt = &archivedAt
		return nil
	})
	if err != nil {
		return dto.ArchiveResponse{}, err
	}

	s.publish(ctx, "roster.archive", actor, updated)
	s.logger.Info().
		Uint("enrollment_id", enrollmentID).
		Str("snapshot_id", snapshot.ID).
		Int64("raw_size", rawSize).
		Int("compressed_size", len(compressed)).
		Msg("enrollment archived")

	return dto.ArchiveResponse{
		SnapshotID:     snapshot.ID,
		EnrollmentID:   enrollmentID,
		RawSize:        rawSize,
		CompressedSize: int64(len(compressed)),
		ArchivedAt:     archivedAt,
	}, nil
}

func (s *archiveService) Restore(ctx context.Context, actor Actor, enrollmentID uint) (dto.EnrollmentResponse, error) {
	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrEnrollmentNotFound
		}
		return dto.EnrollmentResponse{}, err
	}
	if enrollment.ArchiveSnapshotID == nil {
		return dto.EnrollmentResponse{}, ErrNotArchived
	}

	snapshot, err := s.snapshots.GetByID(ctx, *enrollment.ArchiveSnapshotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrSnapshotMissing
		}
		return dto.EnrollmentResponse{}, err
	}

	payload, err := decompressSnapshot(snapshot.Payload)
	if err != nil {
		return dto.EnrollmentResponse{}, fmt.Errorf("decompress snapshot: %w", err)
	}

	updated, err := s.enrollments.Transition(ctx, enrollmentID, func(e *models.Enrollment) error {
		e.StatusValue = payload.Enrollment.StatusValue
		e.ActiveFutureArchived = payload.Enrollment.ActiveFutureArchived
		e.AutoStatus = payload.Enrollment.AutoStatus
		e.AutoStatusValue = payload.Enrollment.AutoStatusValue
		e.Categories = payload.Enrollment.Categories
		e.ResumingOn = payload.Enrollment.ResumingOn
		e.StartingOn = payload.Enrollment.StartingOn
		e.FinalizedOn = payload.Enrollment.FinalizedOn
		e.ArchiveSnapshotID = nil
		e.ArchivedAt = nil
		return nil
	})
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	if err := s.snapshots.MarkRestored(ctx, snapshot.ID, s.now().UTC()); err != nil {
		s.logger.Warn().Err(err).Str("snapshot_id", snapshot.ID).Msg("failed to mark snapshot restored")
	}

	s.publish(ctx, "roster.restore", actor, updated)
	s.logger.Info().
		Uint("enrollment_id", enrollmentID).
		Str("snapshot_id", snapshot.ID).
		Msg("enrollment restored")

	return dto.NewEnrollmentResponse(updated), nil
}

func (s *archiveService) publish(ctx context.Context, kind string, actor Actor, enrollment models.Enrollment) {
	if s.events == nil {
		return
	}
	s.events.PublishRosterEvent(ctx, dto.RosterEvent{
		Type:     kind,
		ActorKey: actor.Key,
		Payload: map[string]interface{}{
			"enrollment_id": enrollment.ID,
		},
		OccurredAt: s.now().UTC(),
	})
}

func compressSnapshot(payload archivePayload) ([]byte, int64, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}

	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	if _, err := writer.Write(raw); err != nil {
		return nil, 0, err
	}
	if err := writer.Close(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), int64(len(raw)), nil
}

func decompressSnapshot(compressed []byte) (archivePayload, error) {
	reader, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return archivePayload{}, err
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return archivePayload{}, err
	}

	var payload archivePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return archivePayload{}, err
	}
	return payload, nil
}
