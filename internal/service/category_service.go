package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/models"
	"github.com/rtdacademy/roster-api/internal/repository"
)

// Category service errors surfaced to handlers.
var (
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryArchived     = errors.New("category is archived")
	ErrCategoryTypeNotFound = errors.New("category type not found")
	ErrCategoryTypeInUse    = errors.New("category type is referenced by existing categories")
	ErrActAsForbidden       = errors.New("acting on behalf of another staff member requires admin role")
	ErrCategoryAdminOnly    = errors.New("category type management requires admin role")
)

// CategoryService manages per-teacher categories, the shared type table, and
// the dual-location tag flags on enrollments.
type CategoryService interface {
	List(ctx context.Context, actor Actor, staffOverride string, includeArchived bool) ([]dto.CategoryResponse, error)
	ListAll(ctx context.Context) ([]dto.CategoryResponse, error)
	Create(ctx context.Context, actor Actor, staffOverride string, req dto.CategoryCreateRequest) (dto.CategoryResponse, error)
	Update(ctx context.Context, actor Actor, id string, req dto.CategoryUpdateRequest) (dto.CategoryResponse, error)
	Delete(ctx context.Context, actor Actor, id string) error
	ListTypes(ctx context.Context) ([]dto.CategoryTypeResponse, error)
	CreateType(ctx context.Context, actor Actor, req dto.CategoryTypeCreateRequest) (dto.CategoryTypeResponse, error)
	UpdateType(ctx context.Context, actor Actor, id string, req dto.CategoryTypeUpdateRequest) (dto.CategoryTypeResponse, error)
	DeleteType(ctx context.Context, actor Actor, id string) error
	Apply(ctx context.Context, enrollmentID uint, teacherKey, categoryID string, actor Actor) error
	Remove(ctx context.Context, enrollmentID uint, teacherKey, categoryID string, actor Actor) error
}

type categoryService struct {
	categories  repository.CategoryRepository
	types       repository.CategoryTypeRepository
	enrollments repository.EnrollmentRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	events      EventPublisher
	logger      zerolog.Logger
	now         func() time.Time
}

// NewCategoryService constructs the category service.
func NewCategoryService(
	categories repository.CategoryRepository,
	types repository.CategoryTypeRepository,
	enrollments repository.EnrollmentRepository,
	validate *validator.Validate,
	events EventPublisher,
	logger zerolog.Logger,
) CategoryService {
	return &categoryService{
		categories:  categories,
		types:       types,
		enrollments: enrollments,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		events:      events,
		logger:      logger.With().Str("component", "category_service").Logger(),
		now:         time.Now,
	}
}

// resolveTeacherKey decides whose category set an operation targets. Only
// admins may act on behalf of another staff member.
func (s *categoryService) resolveTeacherKey(actor Actor, staffOverride string) (string, error) {
	override := strings.TrimSpace(staffOverride)
	if override == "" || override == actor.Key {
		return actor.Key, nil
	}
	if !actor.IsAdmin() {
		return "", ErrActAsForbidden
	}
	return override, nil
}

func (s *categoryService) List(ctx context.Context, actor Actor, staffOverride string, includeArchived bool) ([]dto.CategoryResponse, error) {
	teacherKey, err := s.resolveTeacherKey(actor, staffOverride)
	if err != nil {
		return nil, err
	}

	categories, err := s.categories.ListByTeacher(ctx, teacherKey, includeArchived)
	if err != nil {
		return nil, err
	}
	return categoryResponses(categories), nil
}

func (s *categoryService) ListAll(ctx context.Context) ([]dto.CategoryResponse, error) {
	categories, err := s.categories.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return categoryResponses(categories), nil
}

func (s *categoryService) Create(ctx context.Context, actor Actor, staffOverride string, req dto.CategoryCreateRequest) (dto.CategoryResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CategoryResponse{}, err
	}

	teacherKey, err := s.resolveTeacherKey(actor, staffOverride)
	if err != nil {
		return dto.CategoryResponse{}, err
	}

	name := strings.TrimSpace(s.sanitizer.Sanitize(req.Name))
	if name == "" {
		return dto.CategoryResponse{}, errors.New("category name empty after sanitization")
	}

	if req.TypeID != nil {
		if _, err := s.types.GetByID(ctx, *req.TypeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.CategoryResponse{}, ErrCategoryTypeNotFound
			}
			return dto.CategoryResponse{}, err
		}
	}

	category := models.Category{
		ID:         uuid.NewString(),
		TeacherKey: teacherKey,
		Name:       name,
		Color:      strings.TrimSpace(req.Color),
		Icon:       strings.TrimSpace(req.Icon),
		TypeID:     req.TypeID,
	}
	if err := s.categories.Create(ctx, &category); err != nil {
		return dto.CategoryResponse{}, err
	}

	return dto.NewCategoryResponse(category), nil
}

func (s *categoryService) Update(ctx context.Context, actor Actor, id string, req dto.CategoryUpdateRequest) (dto.CategoryResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CategoryResponse{}, err
	}

	category, err := s.ownedCategory(ctx, actor, id)
	if err != nil {
		return dto.CategoryResponse{}, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(s.sanitizer.Sanitize(*req.Name))
		if name == "" {
			return dto.CategoryResponse{}, errors.New("category name empty after sanitization")
		}
		updates["name"] = name
	}
	if req.Color != nil {
		updates["color"] = strings.TrimSpace(*req.Color)
	}
	if req.Icon != nil {
		updates["icon"] = strings.TrimSpace(*req.Icon)
	}
	if req.TypeID != nil {
		if _, err := s.types.GetByID(ctx, *req.TypeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.CategoryResponse{}, ErrCategoryTypeNotFound
			}
			return dto.CategoryResponse{}, err
		}
		updates["type_id"] = *req.TypeID
	}
	if req.Archived != nil {
		updates["archived"] = *req.Archived
	}

	if len(updates) == 0 {
		return dto.NewCategoryResponse(category), nil
	}

	updated, err := s.categories.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CategoryResponse{}, ErrCategoryNotFound
		}
		return dto.CategoryResponse{}, err
	}
	return dto.NewCategoryResponse(updated), nil
}

// Delete removes a category and clears its flag from every enrollment and
// summary row that carries it.
func (s *categoryService) Delete(ctx context.Context, actor Actor, id string) error {
	category, err := s.ownedCategory(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	flagKey := flagKey(category.TeacherKey, category.ID)
	if err := s.enrollments.ClearCategoryFlag(ctx, flagKey, s.now().UTC()); err != nil {
		s.logger.Error().Err(err).Str("category_id", id).Msg("failed to clear category flag after delete")
	}
	return nil
}

func (s *categoryService) ListTypes(ctx context.Context) ([]dto.CategoryTypeResponse, error) {
	types, err := s.types.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CategoryTypeResponse, 0, len(types))
	for _, t := range types {
		responses = append(responses, dto.NewCategoryTypeResponse(t))
	}
	return responses, nil
}

func (s *categoryService) CreateType(ctx context.Context, actor Actor, req dto.CategoryTypeCreateRequest) (dto.CategoryTypeResponse, error) {
	if !actor.IsAdmin() {
		return dto.CategoryTypeResponse{}, ErrCategoryAdminOnly
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.CategoryTypeResponse{}, err
	}

	categoryType := models.CategoryType{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(s.sanitizer.Sanitize(req.Name)),
		Description: strings.TrimSpace(s.sanitizer.Sanitize(req.Description)),
		Icon:        strings.TrimSpace(req.Icon),
		Color:       strings.TrimSpace(req.Color),
	}
	if categoryType.Name == "" {
		return dto.CategoryTypeResponse{}, errors.New("type name empty after sanitization")
	}

	if err := s.types.Create(ctx, &categoryType); err != nil {
		return dto.CategoryTypeResponse{}, err
	}
	return dto.NewCategoryTypeResponse(categoryType), nil
}

func (s *categoryService) UpdateType(ctx context.Context, actor Actor, id string, req dto.CategoryTypeUpdateRequest) (dto.CategoryTypeResponse, error) {
	if !actor.IsAdmin() {
		return dto.CategoryTypeResponse{}, ErrCategoryAdminOnly
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.CategoryTypeResponse{}, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(s.sanitizer.Sanitize(*req.Name))
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(s.sanitizer.Sanitize(*req.Description))
	}
	if req.Icon != nil {
		updates["icon"] = strings.TrimSpace(*req.Icon)
	}
	if req.Color != nil {
		updates["color"] = strings.TrimSpace(*req.Color)
	}

	updated, err := s.types.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CategoryTypeResponse{}, ErrCategoryTypeNotFound
		}
		return dto.CategoryTypeResponse{}, err
	}
	return dto.NewCategoryTypeResponse(updated), nil
}

// DeleteType refuses while any category still references the type.
func (s *categoryService) DeleteType(ctx context.Context, actor Actor, id string) error {
	if !actor.IsAdmin() {
		return ErrCategoryAdminOnly
	}

	count, err := s.categories.CountByType(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryTypeInUse
	}

	if err := s.types.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryTypeNotFound
		}
		return err
	}
	return nil
}

// Apply sets the category flag in both storage locations in one
// transaction, so a reader never observes them in disagreement. Reapplying
// an applied category is a no-op effect.
func (s *categoryService) Apply(ctx context.Context, enrollmentID uint, teacherKey, categoryID string, actor Actor) error {
	return s.setFlag(ctx, enrollmentID, teacherKey, categoryID, true, actor)
}

// Remove clears the flag symmetrically to Apply.
func (s *categoryService) Remove(ctx context.Context, enrollmentID uint, teacherKey, categoryID string, actor Actor) error {
	return s.setFlag(ctx, enrollmentID, teacherKey, categoryID, false, actor)
}

func (s *categoryService) setFlag(ctx context.Context, enrollmentID uint, teacherKey, categoryID string, enabled bool, actor Actor) error {
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	if category.TeacherKey != teacherKey {
		return ErrCategoryNotFound
	}
	if enabled && category.Archived {
		return ErrCategoryArchived
	}

	if err := s.enrollments.SetCategoryFlag(ctx, enrollmentID, flagKey(teacherKey, categoryID), enabled, s.now().UTC()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		return err
	}

	eventType := "category.applied"
	if !enabled {
		eventType = "category.removed"
	}
	if s.events != nil {
		s.events.PublishRosterEvent(ctx, dto.RosterEvent{
			Type:     eventType,
			ActorKey: actor.Key,
			Payload: map[string]interface{}{
				"enrollment_id": enrollmentID,
				"teacher_key":   teacherKey,
				"category_id":   categoryID,
			},
			OccurredAt: s.now().UTC(),
		})
	}
	return nil
}

func (s *categoryService) ownedCategory(ctx context.Context, actor Actor, id string) (models.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Category{}, ErrCategoryNotFound
		}
		return models.Category{}, err
	}
	if category.TeacherKey != actor.Key && !actor.IsAdmin() {
		return models.Category{}, ErrActAsForbidden
	}
	return category, nil
}

func categoryResponses(categories []models.Category) []dto.CategoryResponse {
	responses := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		responses = append(responses, dto.NewCategoryResponse(category))
	}
	return responses
}

// flagKey is the flattened key stored on both the enrollment record and the
// summary projection.
func flagKey(teacherKey, categoryID string) string {
	return teacherKey + ":" + categoryID
}
