package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/rtdacademy/roster-api/internal/service"
	"github.com/rtdacademy/roster-api/internal/utils"
)

// ASNHandler surfaces Alberta Student Number ownership conflicts.
type ASNHandler struct {
	service service.ASNService
	logger  zerolog.Logger
}

// NewASNHandler constructs the handler.
func NewASNHandler(service service.ASNService, logger zerolog.Logger) *ASNHandler {
	return &ASNHandler{
		service: service,
		logger:  logger.With().Str("component", "asn_handler").Logger(),
	}
}

// Register wires the ASN routes.
func (h *ASNHandler) Register(router fiber.Router) {
	router.Get("/issues", h.issues)
}

func (h *ASNHandler) issues(c *fiber.Ctx) error {
	result, err := h.service.ListIssues(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list asn issues")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list asn issues")
	}

	return utils.SendSuccess(c, "asn issues", result)
}
