package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/service"
	"github.com/rtdacademy/roster-api/internal/utils"
)

// CategoryHandler exposes per-teacher category management and the shared
// category type registry.
type CategoryHandler struct {
	service   service.CategoryService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCategoryHandler constructs the handler.
func NewCategoryHandler(service service.CategoryService, validator *validator.Validate, logger zerolog.Logger) *CategoryHandler {
	return &CategoryHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "category_handler").Logger(),
	}
}

// Register wires category and category type routes.
func (h *CategoryHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Get("/types", h.listTypes)
	router.Post("/types", h.createType)
	router.Put("/types/:id", h.updateType)
	router.Delete("/types/:id", h.deleteType)
}

func (h *CategoryHandler) list(c *fiber.Ctx) error {
	includeArchived, err := parseQueryBool(c, "include_archived")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid include_archived")
	}
	archived := includeArchived != nil && *includeArchived

	if all, err := parseQueryBool(c, "all"); err == nil && all != nil && *all {
		categories, err := h.service.ListAll(c.UserContext())
		if err != nil {
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to list categories")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to list categories")
		}
		return utils.SendSuccess(c, "categories", categories)
	}

	categories, err := h.service.List(c.UserContext(), actorFromContext(c), c.Query("staff"), archived)
	if err != nil {
		if errors.Is(err, service.ErrActAsForbidden) {
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list categories")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list categories")
	}

	return utils.SendSuccess(c, "categories", categories)
}

func (h *CategoryHandler) create(c *fiber.Ctx) error {
	var req dto.CategoryCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	category, err := h.service.Create(c.UserContext(), actorFromContext(c), c.Query("staff"), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrActAsForbidden):
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrCategoryTypeNotFound):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to create category")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create category")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "category created", category)
}

func (h *CategoryHandler) update(c *fiber.Ctx) error {
	var req dto.CategoryUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	category, err := h.service.Update(c.UserContext(), actorFromContext(c), c.Params("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrActAsForbidden):
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrCategoryTypeNotFound):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to update category")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to update category")
	}

	return utils.SendSuccess(c, "category updated", category)
}

func (h *CategoryHandler) delete(c *fiber.Ctx) error {
	err := h.service.Delete(c.UserContext(), actorFromContext(c), c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrActAsForbidden):
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to delete category")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete category")
	}

	return utils.SendSuccess(c, "category deleted", nil)
}

func (h *CategoryHandler) listTypes(c *fiber.Ctx) error {
	types, err := h.service.ListTypes(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list category types")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list category types")
	}
	return utils.SendSuccess(c, "category types", types)
}

func (h *CategoryHandler) createType(c *fiber.Ctx) error {
	var req dto.CategoryTypeCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	categoryType, err := h.service.CreateType(c.UserContext(), actorFromContext(c), req)
	if err != nil {
		if errors.Is(err, service.ErrCategoryAdminOnly) {
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to create category type")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create category type")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "category type created", categoryType)
}

func (h *CategoryHandler) updateType(c *fiber.Ctx) error {
	var req dto.CategoryTypeUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	categoryType, err := h.service.UpdateType(c.UserContext(), actorFromContext(c), c.Params("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryTypeNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrCategoryAdminOnly):
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to update category type")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to update category type")
	}

	return utils.SendSuccess(c, "category type updated", categoryType)
}

func (h *CategoryHandler) deleteType(c *fiber.Ctx) error {
	err := h.service.DeleteType(c.UserContext(), actorFromContext(c), c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryTypeNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrCategoryTypeInUse):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, service.ErrCategoryAdminOnly):
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to delete category type")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to delete category type")
	}

	return utils.SendSuccess(c, "category type deleted", nil)
}
