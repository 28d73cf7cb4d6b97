package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rtdacademy/roster-api/internal/models"
	"github.com/rtdacademy/roster-api/internal/options"
)

type archiveRepoStub struct {
	snapshots map[string]models.ArchiveSnapshot
}

func newArchiveRepoStub() *archiveRepoStub {
	return &archiveRepoStub{snapshots: map[string]models.ArchiveSnapshot{}}
}

func (s *archiveRepoStub) Create(ctx context.Context, snapshot *models.ArchiveSnapshot) error {
	snapshot.CreatedAt = time.Now().UTC()
	s.snapshots[snapshot.ID] = *snapshot
	return nil
}

func (s *archiveRepoStub) GetByID(ctx context.Context, id string) (models.ArchiveSnapshot, error) {
	snapshot, ok := s.snapshots[id]
	if !ok {
		return models.ArchiveSnapshot{}, gorm.ErrRecordNotFound
	}
	return snapshot, nil
}

func (s *archiveRepoStub) Latest(ctx context.Context, enrollmentID uint) (models.ArchiveSnapshot, error) {
	var latest *models.ArchiveSnapshot
	for id := range s.snapshots {
		snapshot := s.snapshots[id]
		if snapshot.EnrollmentID != enrollmentID {
			continue
		}
		if latest == nil || snapshot.CreatedAt.After(latest.CreatedAt) {
			latest = &snapshot
		}
	}
	if latest == nil {
		return models.ArchiveSnapshot{}, gorm.ErrRecordNotFound
	}
	return *latest, nil
}

func (s *archiveRepoStub) MarkRestored(ctx context.Context, id string, at time.Time) error {
	snapshot, ok := s.snapshots[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	snapshot.RestoredAt = &at
	s.snapshots[id] = snapshot
	return nil
}

func newArchiveFixture() (*enrollmentRepoStub, *archiveRepoStub, *statusLogRepoStub, *publisherStub, ArchiveService) {
	enrollments := newEnrollmentRepoStub()
	snapshots := newArchiveRepoStub()
	logs := &statusLogRepoStub{}
	publisher := &publisherStub{}
	svc := NewArchiveService(enrollments, snapshots, logs, publisher, testLogger())
	return enrollments, snapshots, logs, publisher, svc
}

func TestArchiveRoundTrip(t *testing.T) {
	enrollments, snapshots, logs, publisher, svc := newArchiveFixture()
	seeded := seedActiveEnrollment(enrollments)
	actor := Actor{Key: "admin@rtd", Role: "admin"}

	require.NoError(t, logs.Create(context.Background(), &models.StatusLog{
		EnrollmentID:   seeded.ID,
		PreviousStatus: "Newly Enrolled",
		NewStatus:      "Active",
		ActorKey:       "teacher@rtd",
	}))

	archived, err := svc.Archive(context.Background(), actor, seeded.ID)
	require.NoError(t, err)
	require.NotEmpty(t, archived.SnapshotID)
	require.Greater(t, archived.RawSize, int64(0))
	require.Greater(t, archived.CompressedSize, int64(0))

	parked, err := enrollments.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Equal(t, options.StateArchived, parked.ActiveFutureArchived)
	require.NotNil(t, parked.ArchiveSnapshotID)
	require.NotNil(t, parked.ArchivedAt)

	// the snapshot preserves the pre-archive state, history included
	snapshot, err := snapshots.GetByID(context.Background(), archived.SnapshotID)
	require.NoError(t, err)
	payload, err := decompressSnapshot(snapshot.Payload)
	require.NoError(t, err)
	require.Equal(t, "Active", payload.Enrollment.StatusValue)
	require.Equal(t, options.StateActive, payload.Enrollment.ActiveFutureArchived)
	require.Len(t, payload.StatusLog, 1)

	restored, err := svc.Restore(context.Background(), actor, seeded.ID)
	require.NoError(t, err)
	require.Equal(t, "Active", restored.StatusValue)
	require.Equal(t, options.StateActive, restored.ActiveFutureArchived)
	require.Nil(t, restored.ArchiveSnapshotID)
	require.Nil(t, restored.ArchivedAt)

	marked, err := snapshots.GetByID(context.Background(), archived.SnapshotID)
	require.NoError(t, err)
	require.NotNil(t, marked.RestoredAt)

	require.Equal(t, []string{"roster.archive", "roster.restore"}, publisher.typesSeen())
}

func TestArchiveRefusesDoubleArchive(t *testing.T) {
	enrollments, _, _, _, svc := newArchiveFixture()
	seeded := seedActiveEnrollment(enrollments)
	actor := Actor{Key: "admin@rtd", Role: "admin"}

	_, err := svc.Archive(context.Background(), actor, seeded.ID)
	require.NoError(t, err)

	_, err = svc.Archive(context.Background(), actor, seeded.ID)
	require.ErrorIs(t, err, ErrAlreadyArchived)
}

func TestRestoreRequiresArchivedRecord(t *testing.T) {
	enrollments, _, _, _, svc := newArchiveFixture()
	seeded := seedActiveEnrollment(enrollments)

	_, err := svc.Restore(context.Background(), Actor{Key: "admin@rtd"}, seeded.ID)
	require.ErrorIs(t, err, ErrNotArchived)
}

func TestRestoreMissingSnapshot(t *testing.T) {
	enrollments, _, _, _, svc := newArchiveFixture()
	seeded := seedActiveEnrollment(enrollments)

	snapshotID := "gone"
	record := enrollments.enrollments[seeded.ID]
	record.ArchiveSnapshotID = &snapshotID
	enrollments.enrollments[seeded.ID] = record

	_, err := svc.Restore(context.Background(), Actor{Key: "admin@rtd"}, seeded.ID)
	require.ErrorIs(t, err, ErrSnapshotMissing)
}

func TestArchiveMissingEnrollment(t *testing.T) {
	_, _, _, _, svc := newArchiveFixture()

	_, err := svc.Archive(context.Background(), Actor{Key: "admin@rtd"}, 404)
	require.ErrorIs(t, err, ErrEnrollmentNotFound)
}
