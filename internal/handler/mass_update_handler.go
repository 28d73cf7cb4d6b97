package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/observability"
	"github.com/rtdacademy/roster-api/internal/service"
	"github.com/rtdacademy/roster-api/internal/utils"
)

// MassUpdateHandler exposes the admin batch property update endpoint.
type MassUpdateHandler struct {
	service service.MassUpdateService
	logger  zerolog.Logger
}

// NewMassUpdateHandler constructs the handler.
func NewMassUpdateHandler(service service.MassUpdateService, logger zerolog.Logger) *MassUpdateHandler {
	return &MassUpdateHandler{
		service: service,
		logger:  logger.With().Str("component", "mass_update_handler").Logger(),
	}
}

// Register wires the mass update route.
func (h *MassUpdateHandler) Register(router fiber.Router) {
	router.Post("", h.apply)
}

func (h *MassUpdateHandler) apply(c *fiber.Ctx) error {
	var req dto.MassUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Apply(c.UserContext(), req, actorFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAdminRequired):
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrUnknownProperty),
			errors.Is(err, service.ErrUnknownStatus),
			errors.Is(err, service.ErrInvalidValue),
			errors.Is(err, service.ErrCategoryRefMissing),
			errors.Is(err, service.ErrCategoryNotFound),
			errors.Is(err, service.ErrCategoryArchived),
			isValidationError(err):
			return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Str("property", req.Property).Msg("mass update failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "mass update failed")
	}

	observability.MassUpdateRecords().Observe(float64(result.Updated))

	return utils.SendSuccess(c, "mass update applied", result)
}
