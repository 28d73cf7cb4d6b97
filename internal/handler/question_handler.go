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

// QuestionHandler exposes AI question generation and the pre-authored bank.
type QuestionHandler struct {
	service   service.QuestionService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewQuestionHandler constructs the handler.
func NewQuestionHandler(service service.QuestionService, validator *validator.Validate, logger zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "question_handler").Logger(),
	}
}

// Register wires the question routes.
func (h *QuestionHandler) Register(router fiber.Router) {
	router.Post("/generate", h.generate)
	router.Get("/:slug", h.get)
	router.Post("/:slug/answer", h.answer)
}

// generate returns 400 only for a malformed body. Generation failures are
// absorbed: the fallback question comes back with generatedBy=Fallback.
func (h *QuestionHandler) generate(c *fiber.Ctx) error {
	var req dto.GenerateQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response := h.service.Generate(c.UserContext(), req)
	return utils.SendSuccess(c, "question generated", response)
}

func (h *QuestionHandler) get(c *fiber.Ctx) error {
	response, err := h.service.Get(c.UserContext(), c.Params("slug"))
	if err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Str("slug", c.Params("slug")).Msg("failed to load question")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load question")
	}

	return utils.SendSuccess(c, "question", response)
}

func (h *QuestionHandler) answer(c *fiber.Ctx) error {
	var req dto.AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Grade(c.UserContext(), c.Params("slug"), req)
	if err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Str("slug", c.Params("slug")).Msg("failed to grade answer")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to grade answer")
	}

	return utils.SendSuccess(c, "answer graded", response)
}
