package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/models"
	"github.com/rtdacademy/roster-api/internal/options"
	"github.com/rtdacademy/roster-api/internal/repository"
	"github.com/rtdacademy/roster-api/internal/utils"
)

// Enrollment service errors surfaced to handlers.
var (
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrEnrollmentExists   = errors.New("student already enrolled in course")
	ErrUnknownStatus      = errors.New("status value is not configured")
	ErrNoSuggestion       = errors.New("no suggested status on record")
	ErrAutoApplyRefused   = errors.New("auto status change not allowed for this record")
)

// DateRequiredError marks a gated transition waiting for its secondary
// datum. The handler converts it into a 422 naming the missing date kind.
type DateRequiredError struct {
	Kind options.DateKind
}

func (e *DateRequiredError) Error() string {
	return fmt.Sprintf("status transition requires a %s date", e.Kind)
}

// EnrollmentService owns the enrollment lifecycle: registration, the status
// transition rules, and the auto-status suggestion gate.
type EnrollmentService interface {
	Create(ctx context.Context, req dto.EnrollmentCreateRequest, actor Actor) (dto.EnrollmentResponse, error)
	Get(ctx context.Context, id uint) (dto.EnrollmentResponse, error)
	Logs(ctx context.Context, id uint) ([]dto.StatusLogResponse, error)
	Transition(ctx context.Context, id uint, req dto.StatusTransitionRequest, actor Actor) (dto.StatusTransitionResponse, error)
	AutoApply(ctx context.Context, id uint, actor Actor) (dto.StatusTransitionResponse, error)
	SetPaymentStatus(ctx context.Context, id uint, req dto.PaymentStatusUpdateRequest, actor Actor) (dto.EnrollmentResponse, error)
}

type enrollmentService struct {
	enrollments repository.EnrollmentRepository
	students    repository.StudentRepository
	logs        repository.StatusLogRepository
	asns        repository.ASNRepository
	validator   *validator.Validate
	events      EventPublisher
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(
	enrollments repository.EnrollmentRepository,
	students repository.StudentRepository,
	logs repository.StatusLogRepository,
	asns repository.ASNRepository,
	validate *validator.Validate,
	events EventPublisher,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentService{
		enrollments: enrollments,
		students:    students,
		logs:        logs,
		asns:        asns,
		validator:   validate,
		events:      events,
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
		now:         time.Now,
	}
}

func (s *enrollmentService) Create(ctx context.Context, req dto.EnrollmentCreateRequest, actor Actor) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	emailKey := utils.SanitizeEmail(req.Email)
	student, err := s.students.FindOrCreate(ctx, models.Student{
		Email:              strings.ToLower(strings.TrimSpace(req.Email)),
		EmailKey:           emailKey,
		FirstName:          strings.TrimSpace(req.FirstName),
		LastName:           strings.TrimSpace(req.LastName),
		PreferredFirstName: strings.TrimSpace(req.PreferredFirstName),
		ASN:                strings.TrimSpace(req.ASN),
	})
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	initial, _ := options.FindStatus("Newly Enrolled")
	enrollment := models.Enrollment{
		StudentID:            student.ID,
		CourseID:             strings.TrimSpace(req.CourseID),
		StatusValue:          initial.Value,
		ActiveFutureArchived: initial.ActiveFutureArchived,
		AutoStatus:           initial.AllowAutoStatusChange,
		StudentType:          req.StudentType,
		SchoolYear:           req.SchoolYear,
		Term:                 req.Term,
		DiplomaMonth:         req.DiplomaMonth,
		PASI:                 req.PASI,
		Categories:           datatypes.JSONMap{},
	}

	if err := s.enrollments.CreateWithSummary(ctx, &enrollment, student); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.EnrollmentResponse{}, ErrEnrollmentExists
		}
		return dto.EnrollmentResponse{}, err
	}

	s.claimASN(ctx, student)
	s.publish(ctx, "enrollment.created", utils.SummaryKey(student.EmailKey, enrollment.CourseID), actor, map[string]interface{}{
		"enrollment_id": enrollment.ID,
		"course_id":     enrollment.CourseID,
	})

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) Get(ctx context.Context, id uint) (dto.EnrollmentResponse, error) {
	enrollment, err := s.enrollments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrEnrollmentNotFound
		}
		return dto.EnrollmentResponse{}, err
	}
	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) Logs(ctx context.Context, id uint) ([]dto.StatusLogResponse, error) {
	entries, err := s.logs.ListByEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.StatusLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewStatusLogResponse(entry))
	}
	return responses, nil
}

// Transition applies the status state machine. Informational entries are a
// no-op; gated entries reject until their date arrives; everything else is a
// single read-modify-write transaction over the record plus its summary.
// The audit append and last-change stamp happen after commit and are
// best-effort, matching the two-write shape of the original system.
func (s *enrollmentService) Transition(ctx context.Context, id uint, req dto.StatusTransitionRequest, actor Actor) (dto.StatusTransitionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StatusTransitionResponse{}, err
	}

	opt, ok := options.FindStatus(req.Status)
	if !ok {
		return dto.StatusTransitionResponse{}, ErrUnknownStatus
	}

	switch opt.Transition {
	case options.TransitionInformational:
		return dto.StatusTransitionResponse{Applied: false, Reason: "informational status entries are never applied"}, nil
	case options.TransitionRequiresDate:
		if transitionDate(opt.DateKind, req) == nil {
			return dto.StatusTransitionResponse{}, &DateRequiredError{Kind: opt.DateKind}
		}
	}

	return s.applyTransition(ctx, id, opt, req, actor, false)
}

// AutoApply promotes the out-of-band status suggestion, but only when both
// the suggested option and the record's current option allow auto changes.
// The double gate keeps a manually curated state from being silently
// advanced.
func (s *enrollmentService) AutoApply(ctx context.Context, id uint, actor Actor) (dto.StatusTransitionResponse, error) {
	enrollment, err := s.enrollments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StatusTransitionResponse{}, ErrEnrollmentNotFound
		}
		return dto.StatusTransitionResponse{}, err
	}

	suggestion := strings.TrimSpace(enrollment.AutoStatusValue)
	if suggestion == "" {
		return dto.StatusTransitionResponse{}, ErrNoSuggestion
	}

	suggested, ok := options.FindStatus(suggestion)
	if !ok {
		return dto.StatusTransitionResponse{}, ErrUnknownStatus
	}

	current, ok := options.FindStatus(enrollment.StatusValue)
	if !ok || !current.AllowAutoStatusChange || !suggested.AllowAutoStatusChange {
		return dto.StatusTransitionResponse{}, ErrAutoApplyRefused
	}

	// Suggestions that need extra input cannot be applied unattended.
	if suggested.Transition != options.TransitionDirect {
		return dto.StatusTransitionResponse{}, ErrAutoApplyRefused
	}

	return s.applyTransition(ctx, id, suggested, dto.StatusTransitionRequest{Status: suggestion}, actor, true)
}

// SetPaymentStatus writes the billing state onto the record and its summary.
// Payment status sits outside the status state machine, so there is no audit
// log entry; the last-change stamp and event carry the attribution.
func (s *enrollmentService) SetPaymentStatus(ctx context.Context, id uint, req dto.PaymentStatusUpdateRequest, actor Actor) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	value := strings.TrimSpace(req.PaymentStatus)
	if !options.IsPaymentStatus(value) {
		return dto.EnrollmentResponse{}, fmt.Errorf("%w: %q is not a payment status", ErrInvalidValue, value)
	}

	previous := ""
	updated, err := s.enrollments.Transition(ctx, id, func(e *models.Enrollment) error {
		previous = e.PaymentStatus
		e.PaymentStatus = value
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrEnrollmentNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	s.stampLastChange(ctx, updated.ID, actor, "Payment_Status")
	s.publish(ctx, "enrollment.payment_status_changed", "", actor, map[string]interface{}{
		"enrollment_id":   updated.ID,
		"previous_status": previous,
		"new_status":      updated.PaymentStatus,
	})

	return dto.NewEnrollmentResponse(updated), nil
}

func (s *enrollmentService) applyTransition(ctx context.Context, id uint, opt options.StatusOption, req dto.StatusTransitionRequest, actor Actor, auto bool) (dto.StatusTransitionResponse, error) {
	previous := ""
	updated, err := s.enrollments.Transition(ctx, id, func(e *models.Enrollment) error {
		previous = e.StatusValue
		e.StatusValue = opt.Value
		if opt.ActiveFutureArchived != "" {
			e.ActiveFutureArchived = opt.ActiveFutureArchived
		}
		e.AutoStatus = opt.AllowAutoStatusChange

		switch opt.DateKind {
		case options.DateKindResume:
			e.ResumingOn = req.ResumingOn
		case options.DateKindStart:
			e.StartingOn = req.StartingOn
		case options.DateKindFinalize:
			e.FinalizedOn = req.FinalizedOn
		}

		if e.AutoStatusValue == opt.Value {
			e.AutoStatusValue = ""
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StatusTransitionResponse{}, ErrEnrollmentNotFound
		}
		return dto.StatusTransitionResponse{}, err
	}

	s.appendLog(ctx, updated, previous, actor, auto)
	s.stampLastChange(ctx, updated.ID, actor, "Status_Value")
	s.publish(ctx, "enrollment.status_changed", "", actor, map[string]interface{}{
		"enrollment_id":   updated.ID,
		"previous_status": previous,
		"new_status":      updated.StatusValue,
		"auto":            auto,
	})

	return dto.StatusTransitionResponse{Applied: true, Enrollment: dto.NewEnrollmentResponse(updated)}, nil
}

func (s *enrollmentService) appendLog(ctx context.Context, e models.Enrollment, previous string, actor Actor, auto bool) {
	entry := models.StatusLog{
		EnrollmentID:   e.ID,
		PreviousStatus: previous,
		NewStatus:      e.StatusValue,
		ActorKey:       actor.Key,
		ActorRole:      actor.Role,
		AutoStatus:     auto,
	}
	if err := s.logs.Create(ctx, &entry); err != nil {
		s.logger.Error().Err(err).Uint("enrollment_id", e.ID).Msg("failed to append status log")
	}
}

func (s *enrollmentService) stampLastChange(ctx context.Context, id uint, actor Actor, field string) {
	stamp := map[string]interface{}{
		"actor":     actor.Key,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"field":     field,
	}
	if err := s.enrollments.StampLastChange(ctx, id, stamp); err != nil {
		s.logger.Error().Err(err).Uint("enrollment_id", id).Msg("failed to stamp last change")
	}
}

// claimASN marks the student's email key as the current owner of their ASN.
// Conflicting claims are recorded as-is; the roster surfaces them as ASN
// issues instead of rejecting the write.
func (s *enrollmentService) claimASN(ctx context.Context, student models.Student) {
	asn := utils.NormalizeASN(student.ASN)
	if asn == "" {
		return
	}

	record, err := s.asns.Get(ctx, asn)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().Err(err).Str("asn", asn).Msg("failed to read asn record")
			return
		}
		record = models.ASNRecord{ASN: asn, EmailKeys: datatypes.JSONMap{}}
	}
	if record.EmailKeys == nil {
		record.EmailKeys = datatypes.JSONMap{}
	}
	record.EmailKeys[student.EmailKey] = true

	if err := s.asns.Upsert(ctx, &record); err != nil {
		s.logger.Error().Err(err).Str("asn", asn).Msg("failed to upsert asn record")
	}
}

func (s *enrollmentService) publish(ctx context.Context, eventType, key string, actor Actor, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.PublishRosterEvent(ctx, dto.RosterEvent{
		Type:       eventType,
		Key:        key,
		ActorKey:   actor.Key,
		Payload:    payload,
		OccurredAt: s.now().UTC(),
	})
}

func transitionDate(kind options.DateKind, req dto.StatusTransitionRequest) *time.Time {
	switch kind {
	case options.DateKindResume:
		return req.ResumingOn
	case options.DateKindStart:
		return req.StartingOn
	case options.DateKindFinalize:
		return req.FinalizedOn
	default:
		return nil
	}
}
