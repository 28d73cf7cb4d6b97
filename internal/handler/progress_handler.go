package handler

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/service"
	"github.com/rtdacademy/roster-api/internal/utils"
)

// ProgressHandler exposes per-lesson quiz progress. Students may only touch
// their own progress; staff can read anyone's.
type ProgressHandler struct {
	service   service.ProgressService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewProgressHandler constructs the handler.
func NewProgressHandler(service service.ProgressService, validator *validator.Validate, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register wires the progress routes.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Get("/:studentKey/lessons/:lessonId/progress", h.get)
	router.Put("/:studentKey/lessons/:lessonId/progress", h.answer)
}

func (h *ProgressHandler) get(c *fiber.Ctx) error {
	studentKey, lessonID, err := progressParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if !h.authorized(c, studentKey, true) {
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}

	response, err := h.service.Get(c.UserContext(), studentKey, lessonID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Str("student_key", studentKey).Msg("failed to load progress")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load progress")
	}

	return utils.SendSuccess(c, "lesson progress", response)
}

func (h *ProgressHandler) answer(c *fiber.Ctx) error {
	studentKey, lessonID, err := progressParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if !h.authorized(c, studentKey, false) {
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}

	var req dto.ProgressAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Answer(c.UserContext(), studentKey, lessonID, req)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Str("student_key", studentKey).Msg("failed to record answer")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to record answer")
	}

	return utils.SendSuccess(c, "answer recorded", response)
}

func (h *ProgressHandler) authorized(c *fiber.Ctx, studentKey string, allowStaffRead bool) bool {
	actor := actorFromContext(c)
	if actor.Key == studentKey {
		return true
	}
	if allowStaffRead {
		return actor.IsStaff()
	}
	return actor.IsAdmin()
}

func progressParams(c *fiber.Ctx) (string, string, error) {
	studentKey := strings.TrimSpace(c.Params("studentKey"))
	lessonID := strings.TrimSpace(c.Params("lessonId"))
	if studentKey == "" || lessonID == "" {
		return "", "", fiber.NewError(fiber.StatusBadRequest, "student key and lesson id are required")
	}
	return studentKey, lessonID, nil
}
