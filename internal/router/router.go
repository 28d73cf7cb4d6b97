package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rtdacademy/roster-api/internal/config"
	"github.com/rtdacademy/roster-api/internal/handler"
	"github.com/rtdacademy/roster-api/internal/middleware"
	"github.com/rtdacademy/roster-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EnrollmentHandler *handler.EnrollmentHandler
	CategoryHandler   *handler.CategoryHandler
	RosterHandler     *handler.RosterHandler
	MassUpdateHandler *handler.MassUpdateHandler
	QuestionHandler   *handler.QuestionHandler
	ProgressHandler   *handler.ProgressHandler
	ASNHandler        *handler.ASNHandler
	EventHandler      *handler.EventHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	staffOnly := middleware.RequireStaff()

	if deps.EnrollmentHandler != nil {
		enrollments := api.Group("/enrollments", jwtMiddleware, staffOnly)
		deps.EnrollmentHandler.Register(enrollments)
	}

	if deps.CategoryHandler != nil {
		categories := api.Group("/categories", jwtMiddleware, staffOnly)
		deps.CategoryHandler.Register(categories)
	}

	if deps.RosterHandler != nil {
		roster := api.Group("/roster", jwtMiddleware, staffOnly)
		deps.RosterHandler.Register(roster)
	}

	if deps.MassUpdateHandler != nil {
		massUpdate := api.Group("/mass-update", jwtMiddleware, staffOnly)
		deps.MassUpdateHandler.Register(massUpdate)
	}

	if deps.ASNHandler != nil {
		asn := api.Group("/asn", jwtMiddleware, staffOnly)
		deps.ASNHandler.Register(asn)
	}

	if deps.QuestionHandler != nil {
		// Generation hits the AI backend, so question routes are rate limited
		// per user.
		questions := api.Group("/questions", jwtMiddleware, middleware.RateLimit("questions", 30, time.Minute))
		deps.QuestionHandler.Register(questions)
	}

	if deps.ProgressHandler != nil {
		students := api.Group("/students", jwtMiddleware)
		deps.ProgressHandler.Register(students)
	}

	if deps.EventHandler != nil {
		events := api.Group("/events", jwtMiddleware, staffOnly)
		deps.EventHandler.Register(events)
	}
}
