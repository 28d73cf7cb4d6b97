package handler

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/service"
	"github.com/rtdacademy/roster-api/internal/utils"
)

// EnrollmentHandler exposes the enrollment lifecycle: registration, status
// transitions, category flags, and archive/restore.
type EnrollmentHandler struct {
	enrollments service.EnrollmentService
	categories  service.CategoryService
	archive     service.ArchiveService
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(
	enrollments service.EnrollmentService,
	categories service.CategoryService,
	archive service.ArchiveService,
	validator *validator.Validate,
	logger zerolog.Logger,
) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollments: enrollments,
		categories:  categories,
		archive:     archive,
		validator:   validator,
		logger:      logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register wires the enrollment routes.
func (h *EnrollmentHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Get("/:id/logs", h.logs)
	router.Patch("/:id/status", h.transition)
	router.Patch("/:id/payment-status", h.setPaymentStatus)
	router.Post("/:id/status/auto-apply", h.autoApply)
	router.Put("/:id/categories/:teacherKey/:categoryId", h.applyCategory)
	router.Delete("/:id/categories/:teacherKey/:categoryId", h.removeCategory)
	router.Post("/:id/archive", h.archiveEnrollment)
	router.Post("/:id/restore", h.restoreEnrollment)
}

func (h *EnrollmentHandler) create(c *fiber.Ctx) error {
	var req dto.EnrollmentCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.enrollments.Create(c.UserContext(), req, actorFromContext(c))
	if err != nil {
		if errors.Is(err, service.ErrEnrollmentExists) {
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to create enrollment")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create enrollment")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "enrollment created", response)
}

func (h *EnrollmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid enrollment id")
	}

	response, err := h.enrollments.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrEnrollmentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("enrollment_id", id).Msg("failed to load enrollment")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load enrollment")
	}

	return utils.SendSuccess(c, "enrollment", response)
}

func (h *EnrollmentHandler) logs(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid enrollment id")
	}

	entries, err := h.enrollments.Logs(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrEnrollmentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("enrollment_id", id).Msg("failed to load status history")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load status history")
	}

	return utils.SendSuccess(c, "status history", entries)
}

func (h *EnrollmentHandler) transition(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid enrollment id")
	}

	var req dto.StatusTransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.enrollments.Transition(c.UserContext(), id, req, actorFromContext(c))
	if err != nil {
		var dateRequired *service.DateRequiredError
		switch {
		case errors.Is(err, service.ErrEnrollmentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrUnknownStatus):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
		case errors.As(err, &dateRequired):
			return utils.SendError(c, fiber.StatusUnprocessableEntity,
				fmt.Sprintf("status requires a %s date", dateRequired.Kind))
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("enrollment_id", id).Msg("status transition failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "status transition failed")
	}

	if !response.Applied {
		return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "status acknowledged", response)
	}
	return utils.SendSuccess(c, "status processed", response)
}

func (h *EnrollmentHandler) setPaymentStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid enrollment id")
	}

	var req dto.PaymentStatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.enrollments.SetPaymentStatus(c.UserContext(), id, req, actorFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEnrollmentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidValue):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("enrollment_id", id).Msg("payment status update failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "payment status update failed")
	}

	return utils.SendSuccess(c, "payment status updated", response)
}

func (h *EnrollmentHandler) autoApply(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid enrollment id")
	}

	response, err := h.enrollments.AutoApply(c.UserContext(), id, actorFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEnrollmentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNoSuggestion), errors.Is(err, service.ErrAutoApplyRefused):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("enrollment_id", id).Msg("auto status apply failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "auto status apply failed")
	}

	return utils.SendSuccess(c, "suggested status applied", response)
}

func (h *EnrollmentHandler) applyCategory(c *fiber.Ctx) error {
	return h.setCategory(c, true)
}

func (h *EnrollmentHandler) removeCategory(c *fiber.Ctx) error {
	return h.setCategory(c, false)
}

func (h *EnrollmentHandler) setCategory(c *fiber.Ctx, enabled bool) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid enrollment id")
	}
	teacherKey := c.Params("teacherKey")
	categoryID := c.Params("categoryId")
	if teacherKey == "" || categoryID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "teacher key and category id are required")
	}

	actor := actorFromContext(c)
	if enabled {
		err = h.categories.Apply(c.UserContext(), id, teacherKey, categoryID, actor)
	} else {
		err = h.categories.Remove(c.UserContext(), id, teacherKey, categoryID, actor)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEnrollmentNotFound), errors.Is(err, service.ErrCategoryNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrCategoryArchived):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, service.ErrActAsForbidden):
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("enrollment_id", id).Msg("category flag update failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "category flag update failed")
	}

	message := "category removed"
	if enabled {
		message = "category applied"
	}
	return utils.SendSuccess(c, message, nil)
}

func (h *EnrollmentHandler) archiveEnrollment(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid enrollment id")
	}

	response, err := h.archive.Archive(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEnrollmentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadyArchived):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("enrollment_id", id).Msg("archive failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "archive failed")
	}

	return utils.SendSuccess(c, "enrollment archived", response)
}

func (h *EnrollmentHandler) restoreEnrollment(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid enrollment id")
	}

	response, err := h.archive.Restore(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEnrollmentNotFound), errors.Is(err, service.ErrSnapshotMissing):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotArchived):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("enrollment_id", id).Msg("restore failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "restore failed")
	}

	return utils.SendSuccess(c, "enrollment restored", response)
}
