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

	"github.com/mentorloop/mentorloop-api/internal/config"
	"github.com/mentorloop/mentorloop-api/internal/database"
	"github.com/mentorloop/mentorloop-api/internal/handler"
	"github.com/mentorloop/mentorloop-api/internal/middleware"
	"github.com/mentorloop/mentorloop-api/internal/models"
	"github.com/mentorloop/mentorloop-api/internal/repository"
	"github.com/mentorloop/mentorloop-api/internal/router"
	"github.com/mentorloop/mentorloop-api/internal/service"
	cloud "github.com/mentorloop/mentorloop-api/pkg/cloudinary"
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

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Course{},
		&models.Batch{},
		&models.Enrollment{},
		&models.Task{},
		&models.TaskAssignee{},
		&models.Submission{},
		&models.WeeklyReview{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, domain events disabled")
	} else {
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	taskRepo := repository.NewTaskRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	reviewRepo := repository.NewWeeklyReviewRepository(db)
	enrollments := repository.NewEnrollmentDirectory(db)
	activityRepo := repository.NewActivityLogRepository(db)

	events := service.NewNATSEventPublisher(natsConn, logger)
	activityService := service.NewActivityService(activityRepo, logger)
	taskService := service.NewTaskService(taskRepo, submissionRepo, enrollments, validate, activityService, logger)
	studentTaskService := service.NewStudentTaskService(taskRepo, submissionRepo, enrollments, cfg.ProgressionScope, logger)
	submissionService := service.NewSubmissionService(submissionRepo, taskRepo, enrollments, validate, uploader, redisClient, cfg.StatsCacheTTL, events, cfg.ProgressionScope, logger)
	gradingService := service.NewGradingService(submissionRepo, taskRepo, validate, activityService, events, logger)
	reviewService := service.NewWeeklyReviewService(reviewRepo, enrollments, activityService, events, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		TaskHandler:        handler.NewTaskHandler(taskService, logger),
		StudentTaskHandler: handler.NewStudentTaskHandler(studentTaskService, logger),
		SubmissionHandler:  handler.NewSubmissionHandler(submissionService, logger),
		GradingHandler:     handler.NewGradingHandler(gradingService, submissionService, logger),
		ReviewHandler:      handler.NewReviewHandler(reviewService, logger),
		ActivityHandler:    handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
