package handler

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/service"
	"github.com/rtdacademy/roster-api/internal/utils"
)

// RosterHandler serves the unified roster view: listing, selection
// resolution, dashboard stats, and CSV export.
type RosterHandler struct {
	service   service.RosterService
	validator *validator.Validate
	rowLimit  int
	logger    zerolog.Logger
}

// NewRosterHandler constructs the handler.
func NewRosterHandler(service service.RosterService, validator *validator.Validate, rowLimit int, logger zerolog.Logger) *RosterHandler {
	return &RosterHandler{
		service:   service,
		validator: validator,
		rowLimit:  rowLimit,
		logger:    logger.With().Str("component", "roster_handler").Logger(),
	}
}

// Register wires the roster routes.
func (h *RosterHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("/selection/resolve", h.resolveSelection)
	router.Get("/stats", h.stats)
	router.Post("/export", h.export)
}

func (h *RosterHandler) list(c *fiber.Ctx) error {
	filters, err := filtersFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.List(c.UserContext(), filters)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list roster")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list roster")
	}

	return utils.SendSuccess(c, "roster", result)
}

func (h *RosterHandler) resolveSelection(c *fiber.Ctx) error {
	filters, err := filtersFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.ResolveSelection(c.UserContext(), filters)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to resolve selection")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve selection")
	}

	return utils.SendSuccess(c, "selection resolved", result)
}

func (h *RosterHandler) stats(c *fiber.Ctx) error {
	result, err := h.service.Stats(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to compute roster stats")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to compute roster stats")
	}

	return utils.SendSuccess(c, "roster stats", result)
}

func (h *RosterHandler) export(c *fiber.Ctx) error {
	var req dto.ExportRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if h.rowLimit > 0 && len(req.Keys) > h.rowLimit {
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "export exceeds row limit")
	}

	payload, err := h.service.Export(c.UserContext(), req)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to export roster")
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	return utils.SendCSV(c, "student-data-export", time.Now(), payload)
}

// filtersFromQuery parses every roster filter dimension off the query
// string.
func filtersFromQuery(c *fiber.Ctx) (service.RosterFilters, error) {
	filters := service.RosterFilters{
		Search:       c.Query("search"),
		Status:       c.Query("status"),
		Course:       c.Query("course"),
		State:        c.Query("state"),
		StudentType:  c.Query("student_type"),
		SchoolYear:   c.Query("school_year"),
		Term:         c.Query("term"),
		DiplomaMonth: c.Query("diploma_month"),
		Category:     c.Query("category"),
		RecordType:   c.Query("record_type"),
		Sort:         c.Query("sort"),
		Descending:   c.Query("order") == "desc",
	}

	var err error
	if filters.HasSchedule, err = parseQueryBool(c, "has_schedule"); err != nil {
		return service.RosterFilters{}, fiber.NewError(fiber.StatusBadRequest, "invalid has_schedule")
	}
	asnIssues, err := parseQueryBool(c, "asn_issues")
	if err != nil {
		return service.RosterFilters{}, fiber.NewError(fiber.StatusBadRequest, "invalid asn_issues")
	}
	filters.ASNIssues = asnIssues != nil && *asnIssues

	dateFields := []struct {
		key    string
		target **time.Time
	}{
		{"start_after", &filters.StartAfter},
		{"start_before", &filters.StartBefore},
		{"end_after", &filters.EndAfter},
		{"end_before", &filters.EndBefore},
		{"created_after", &filters.CreatedAfter},
		{"created_before", &filters.CreatedBefore},
	}
	for _, field := range dateFields {
		parsed, err := parseQueryTime(c, field.key)
		if err != nil {
			return service.RosterFilters{}, fiber.NewError(fiber.StatusBadRequest, "invalid "+field.key)
		}
		*field.target = parsed
	}

	return filters, nil
}
