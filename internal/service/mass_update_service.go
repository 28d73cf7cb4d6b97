package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/models"
	"github.com/rtdacademy/roster-api/internal/options"
	"github.com/rtdacademy/roster-api/internal/repository"
)

// Mass update errors surfaced to handlers.
var (
	ErrAdminRequired      = errors.New("mass updates require admin role")
	ErrUnknownProperty    = errors.New("mass update property is not supported")
	ErrInvalidValue       = errors.New("value is not valid for the chosen property")
	ErrCategoryRefMissing = errors.New("category reference required for category mass updates")
)

// MassUpdateService applies one property change across a selection of
// records in a single all-or-nothing batch. Records are not protected
// against concurrent writers between selection and commit; batch writes are
// documented last-writer-wins.
type MassUpdateService interface {
	Apply(ctx context.Context, req dto.MassUpdateRequest, actor Actor) (dto.MassUpdateResponse, error)
}

type massUpdateService struct {
	batches    repository.MassUpdateRepository
	categories repository.CategoryRepository
	validator  *validator.Validate
	events     EventPublisher
	logger     zerolog.Logger
	now        func() time.Time
}

// NewMassUpdateService constructs the mass update service.
func NewMassUpdateService(
	batches repository.MassUpdateRepository,
	categories repository.CategoryRepository,
	validate *validator.Validate,
	events EventPublisher,
	logger zerolog.Logger,
) MassUpdateService {
	return &massUpdateService{
		batches:    batches,
		categories: categories,
		validator:  validate,
		events:     events,
		logger:     logger.With().Str("component", "mass_update_service").Logger(),
		now:        time.Now,
	}
}

func (s *massUpdateService) Apply(ctx context.Context, req dto.MassUpdateRequest, actor Actor) (dto.MassUpdateResponse, error) {
	if !actor.IsAdmin() {
		return dto.MassUpdateResponse{}, ErrAdminRequired
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.MassUpdateResponse{}, err
	}

	change, err := s.buildChange(ctx, req, actor)
	if err != nil {
		return dto.MassUpdateResponse{}, err
	}

	updated, err := s.batches.ApplyBatch(ctx, req.Keys, change)
	if err != nil {
		return dto.MassUpdateResponse{}, err
	}

	if s.events != nil {
		s.events.PublishRosterEvent(ctx, dto.RosterEvent{
			Type:     "roster.mass_update",
			ActorKey: actor.Key,
			Payload: map[string]interface{}{
				"property": req.Property,
				"value":    req.Value,
				"total":    updated,
			},
			OccurredAt: s.now().UTC(),
		})
	}

	return dto.MassUpdateResponse{Updated: updated, Property: req.Property}, nil
}

// buildChange compiles the request into the per-record mutation the batch
// repository runs. Status changes mirror the single-record transition rules
// and additionally queue an audit entry per record.
func (s *massUpdateService) buildChange(ctx context.Context, req dto.MassUpdateRequest, actor Actor) (repository.BatchChange, error) {
	total := len(req.Keys)

	switch req.Property {
	case dto.MassPropertyStatus:
		opt, ok := options.FindStatus(req.Value)
		if !ok {
			return nil, ErrUnknownStatus
		}
		// Gated and informational statuses need per-record input a batch
		// cannot supply.
		if opt.Transition != options.TransitionDirect {
			return nil, fmt.Errorf("%w: %q cannot be applied in bulk", ErrInvalidValue, req.Value)
		}

		return func(e *models.Enrollment, summary *models.EnrollmentSummary) (*models.StatusLog, error) {
			previous := e.StatusValue
			e.StatusValue = opt.Value
			summary.StatusValue = opt.Value
			if opt.ActiveFutureArchived != "" {
				e.ActiveFutureArchived = opt.ActiveFutureArchived
				summary.ActiveFutureArchived = opt.ActiveFutureArchived
			}
			e.AutoStatus = opt.AllowAutoStatusChange

			return &models.StatusLog{
				EnrollmentID:   e.ID,
				SummaryKey:     summary.Key,
				PreviousStatus: previous,
				NewStatus:      opt.Value,
				ActorKey:       actor.Key,
				ActorRole:      actor.Role,
				AutoStatus:     false,
				IsMassUpdate:   true,
				TotalStudents:  total,
				Metadata: datatypes.JSONMap{
					"property": req.Property,
				},
			}, nil
		}, nil

	case dto.MassPropertyState:
		if !options.IsState(req.Value) {
			return nil, ErrInvalidValue
		}
		return func(e *models.Enrollment, summary *models.EnrollmentSummary) (*models.StatusLog, error) {
			e.ActiveFutureArchived = req.Value
			summary.ActiveFutureArchived = req.Value
			return nil, nil
		}, nil

	case dto.MassPropertyPASI:
		enabled := req.Value == "true"
		if req.Value != "true" && req.Value != "false" {
			return nil, ErrInvalidValue
		}
		return func(e *models.Enrollment, summary *models.EnrollmentSummary) (*models.StatusLog, error) {
			e.PASI = enabled
			summary.PASI = enabled
			return nil, nil
		}, nil

	case dto.MassPropertyStudentType:
		if !options.IsStudentType(req.Value) {
			return nil, ErrInvalidValue
		}
		return func(e *models.Enrollment, summary *models.EnrollmentSummary) (*models.StatusLog, error) {
			e.StudentType = req.Value
			summary.StudentType = req.Value
			return nil, nil
		}, nil

	case dto.MassPropertySchoolYear:
		if req.Value == "" {
			return nil, ErrInvalidValue
		}
		return func(e *models.Enrollment, summary *models.EnrollmentSummary) (*models.StatusLog, error) {
			e.SchoolYear = req.Value
			summary.SchoolYear = req.Value
			return nil, nil
		}, nil

	case dto.MassPropertyDiplomaMonth:
		if !options.IsDiplomaMonth(req.Value) {
			return nil, ErrInvalidValue
		}
		return func(e *models.Enrollment, summary *models.EnrollmentSummary) (*models.StatusLog, error) {
			e.DiplomaMonth = req.Value
			summary.DiplomaMonth = req.Value
			return nil, nil
		}, nil

	case dto.MassPropertyTerm:
		if !options.IsTerm(req.Value) {
			return nil, ErrInvalidValue
		}
		return func(e *models.Enrollment, summary *models.EnrollmentSummary) (*models.StatusLog, error) {
			e.Term = req.Value
			summary.Term = req.Value
			return nil, nil
		}, nil

	case dto.MassPropertyCategories:
		if req.Category == nil {
			return nil, ErrCategoryRefMissing
		}
		category, err := s.categories.GetByID(ctx, req.Category.CategoryID)
		if err != nil {
			return nil, ErrCategoryNotFound
		}
		if category.TeacherKey != req.Category.TeacherKey {
			return nil, ErrCategoryNotFound
		}
		if req.Enabled && category.Archived {
			return nil, ErrCategoryArchived
		}

		key := flagKey(req.Category.TeacherKey, req.Category.CategoryID)
		enabled := req.Enabled
		return func(e *models.Enrollment, summary *models.EnrollmentSummary) (*models.StatusLog, error) {
			if e.Categories == nil {
				e.Categories = datatypes.JSONMap{}
			}
			if summary.Categories == nil {
				summary.Categories = datatypes.JSONMap{}
			}
			e.Categories[key] = enabled
			summary.Categories[key] = enabled
			return nil, nil
		}, nil

	default:
		return nil, ErrUnknownProperty
	}
}
