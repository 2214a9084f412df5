package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"e-nagarpalika-portal/internal/adapters/http/middleware"
	"e-nagarpalika-portal/internal/adapters/http/routes"
	"e-nagarpalika-portal/internal/adapters/persistence/models"
	"e-nagarpalika-portal/internal/adapters/persistence/repositories"
	"e-nagarpalika-portal/internal/config"
	"e-nagarpalika-portal/internal/core/services"
	"e-nagarpalika-portal/internal/core/workflow"
	"e-nagarpalika-portal/internal/pkg/logger"
	"e-nagarpalika-portal/internal/pkg/mailer"

	"github.com/gofiber/fiber/v2"

	_ "e-nagarpalika-portal/docs" // Swagger docs
)

// @title e-Nagarpalika Portal API
// @version 1.0
// @description User ID / Authorization request and approval workflow

// @contact.name IT Cell
// @contact.email itcell@nagarpalika.gov.in

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := run(); err != nil {
		logger.Log.Fatal().Err(err).Msg("server exited")
	}
}

// run owns every resource it opens. Any return, early or after shutdown,
// stops the scheduler and closes the SQL and MongoDB connections.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	log := logger.Setup(cfg.AppMode, cfg.LogLevel)

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeStores()

	if err := models.AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info().Msg("database migration completed")

	if cfg.IsDev() {
		if err := config.NewSeeder(db).Run(); err != nil {
			log.Warn().Err(err).Msg("seeding failed")
		}
	}

	applications := repositories.NewApplicationRepository(db)
	if cfg.UsesMongo() {
		mdb, err := config.ConnectMongo(context.Background(), cfg)
		if err != nil {
			return fmt.Errorf("connect mongodb: %w", err)
		}
		if err := repositories.EnsureApplicationIndexes(context.Background(), mdb); err != nil {
			return fmt.Errorf("create mongodb indexes: %w", err)
		}
		applications = repositories.NewMongoApplicationRepository(mdb)
	}
	log.Info().Str("store", cfg.Store.Driver).Msg("application store ready")

	policy, err := workflow.LoadPolicyFile(cfg.Workflow.PolicyFile)
	if err != nil {
		return fmt.Errorf("load workflow policy: %w", err)
	}
	engine := workflow.NewEngine(policy)

	mail := mailer.New(mailer.Config{
		Host:         cfg.SMTP.Host,
		Port:         cfg.SMTP.Port,
		User:         cfg.SMTP.User,
		Password:     cfg.SMTP.Password,
		From:         cfg.SMTP.From,
		SupportEmail: cfg.SMTP.SupportEmail,
	})
	if !mail.Enabled() {
		log.Warn().Msg("SMTP_HOST not set, email notifications disabled")
	}

	notifier := services.NewNotificationService(mail, repositories.NewOutboxRepository(db), cfg.Outbox.MaxAttempts, cfg.Outbox.BatchSize)
	authService := services.NewAuthService(repositories.NewUserRepository(db), repositories.NewRefreshTokenRepository(db), cfg)

	cronService := services.NewCronService(notifier, authService, cfg.Outbox.Schedule)
	if err := cronService.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer cronService.Stop()

	app := fiber.New(fiber.Config{
		AppName:      "e-Nagarpalika Portal API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	middleware.Setup(app, cfg)

	routes.Setup(app, routes.Dependencies{
		Config:       cfg,
		Auth:         authService,
		Applications: services.NewApplicationService(applications, engine, notifier),
		Dashboard:    services.NewDashboardService(applications, engine.Policy()),
		HealthCheck:  config.HealthCheck,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	stopped := make(chan struct{})
	go func() {
		gracefulShutdown(app, quit)
		close(stopped)
	}()

	log.Info().Str("port", cfg.Port).Str("mode", cfg.AppMode).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	<-stopped
	return nil
}

// gracefulShutdown waits for a signal and drains in-flight requests. Listen
// then returns and run's deferred cleanup stops the scheduler and stores.
func gracefulShutdown(app *fiber.App, quit <-chan os.Signal) {
	<-quit

	logger.Log.Info().Msg("shutting down server")
	if err := app.Shutdown(); err != nil {
		logger.Log.Error().Err(err).Msg("error during shutdown")
	}
	logger.Log.Info().Msg("server stopped gracefully")
}

func closeStores() {
	if err := config.CloseDatabase(); err != nil {
		logger.Log.Error().Err(err).Msg("failed to close database")
	}
}
