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
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/juriscorrect/juriscorrect-api/internal/config"
	"github.com/juriscorrect/juriscorrect-api/internal/database"
	"github.com/juriscorrect/juriscorrect-api/internal/middleware"
	"github.com/juriscorrect/juriscorrect-api/internal/models"
	"github.com/juriscorrect/juriscorrect-api/internal/repository"
	"github.com/juriscorrect/juriscorrect-api/internal/router"
	"github.com/juriscorrect/juriscorrect-api/internal/service"
	"github.com/juriscorrect/juriscorrect-api/pkg/ai"
	cloud "github.com/juriscorrect/juriscorrect-api/pkg/cloudinary"
	"github.com/juriscorrect/juriscorrect-api/pkg/payments"
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

	if err := db.AutoMigrate(&models.Submission{}, &models.Correction{}, &models.PaymentUnlock{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, status caching disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	} else {
		logger.Warn().Msg("nats url not configured, corrections run in process")
	}

	var archiver service.DocumentArchiver
	if cfg.CloudinaryCloudName != "" {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		archiver = uploader
	} else {
		logger.Warn().Msg("cloudinary not configured, document archiving disabled")
	}

	corrector, err := ai.NewOpenAICorrector(ai.OpenAIConfig{
		APIKey:    cfg.OpenAIAPIKey,
		Model:     cfg.OpenAIModel,
		MaxTokens: cfg.OpenAIMaxTokens,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("failed to create openai corrector: %v", err)
	}

	gateway, err := payments.NewStripeGateway(payments.Config{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create stripe gateway: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	submissionRepo := repository.NewSubmissionRepository(db)
	correctionRepo := repository.NewCorrectionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	correctionService := service.NewCorrectionService(correctionRepo, submissionRepo, corrector, redisClient, logger, service.CorrectionConfig{
		ProducerTimeout: cfg.CorrectionTimeout,
		MaxSourceChars:  cfg.MaxSourceChars,
		StatusCacheTTL:  cfg.StatusCacheTTL,
	})
	dispatcher := service.NewCorrectionDispatcher(correctionService, natsConn, cfg.DispatchSubject, 0, logger)
	submissionService := service.NewSubmissionService(submissionRepo, dispatcher, archiver, validate, logger, service.SubmissionConfig{
		MinBodyChars: cfg.MinBodyChars,
		MaxUploadMB:  cfg.MaxUploadMB,
	})
	paymentService := service.NewPaymentService(paymentRepo, submissionRepo, gateway, validate, logger, service.PaymentConfig{
		PlanPrices: cfg.PlanPrices(),
		SuccessURL: cfg.CheckoutSuccessURL,
		CancelURL:  cfg.CheckoutCancelURL,
	})

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	dispatcher.Start(workerCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		Submissions: submissionService,
		Corrections: correctionService,
		Payments:    paymentService,
		Logger:      logger,
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
