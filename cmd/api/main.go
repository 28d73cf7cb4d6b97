package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/rtdacademy/roster-api/internal/config"
	"github.com/rtdacademy/roster-api/internal/database"
	"github.com/rtdacademy/roster-api/internal/handler"
	"github.com/rtdacademy/roster-api/internal/middleware"
	"github.com/rtdacademy/roster-api/internal/repository"
	"github.com/rtdacademy/roster-api/internal/router"
	"github.com/rtdacademy/roster-api/internal/service"
	"github.com/rtdacademy/roster-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	enrollmentRepo := repository.NewEnrollmentRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	categoryTypeRepo := repository.NewCategoryTypeRepository(db)
	statusLogRepo := repository.NewStatusLogRepository(db)
	asnRepo := repository.NewASNRepository(db)
	pasiRepo := repository.NewPASIRepository(db)
	archiveRepo := repository.NewArchiveRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	massUpdateRepo := repository.NewMassUpdateRepository(db)

	eventService := service.NewEventService(redisClient, cfg.EventChannel, natsConn, logger)

	enrollmentService := service.NewEnrollmentService(enrollmentRepo, studentRepo, statusLogRepo, asnRepo, validate, eventService, logger)
	categoryService := service.NewCategoryService(categoryRepo, categoryTypeRepo, enrollmentRepo, validate, eventService, logger)
	massUpdateService := service.NewMassUpdateService(massUpdateRepo, categoryRepo, validate, eventService, logger)
	rosterService := service.NewRosterService(summaryRepo, pasiRepo, asnRepo, redisClient, cfg.StatsCacheTTL, logger)
	archiveService := service.NewArchiveService(enrollmentRepo, archiveRepo, statusLogRepo, eventService, logger)
	asnService := service.NewASNService(asnRepo, logger)
	progressService := service.NewProgressService(progressRepo, questionRepo, logger)

	var generator ai.Generator
	if cfg.OpenAIAPIKey != "" {
		openAI, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.AITimeout,
			Logger:  logger,
		})
		if err != nil {
			log.Fatalf("failed to create question generator: %v", err)
		}
		generator = openAI
	}
	questionService := service.NewQuestionService(questionRepo, generator, logger)

	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService, categoryService, archiveService, validate, logger)
	categoryHandler := handler.NewCategoryHandler(categoryService, validate, logger)
	rosterHandler := handler.NewRosterHandler(rosterService, validate, cfg.ExportRowLimit, logger)
	massUpdateHandler := handler.NewMassUpdateHandler(massUpdateService, logger)
	questionHandler := handler.NewQuestionHandler(questionService, validate, logger)
	progressHandler := handler.NewProgressHandler(progressService, validate, logger)
	asnHandler := handler.NewASNHandler(asnService, logger)
	eventHandler := handler.NewEventHandler(eventService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, CORSOrigins: cfg.CORSOrigins})
	router.Register(app, cfg, router.Dependencies{
		EnrollmentHandler: enrollmentHandler,
		CategoryHandler:   categoryHandler,
		RosterHandler:     rosterHandler,
		MassUpdateHandler: massUpdateHandler,
		QuestionHandler:   questionHandler,
		ProgressHandler:   progressHandler,
		ASNHandler:        asnHandler,
		EventHandler:      eventHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	eventService.Start(relayCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopRelay)
}

func waitForShutdown(app *fiber.App, stopRelay context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopRelay()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
