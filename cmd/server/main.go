package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhagel/campushub/backend/internal/notify"
	"github.com/jhagel/campushub/backend/internal/router"
	"github.com/jhagel/campushub/backend/internal/tasks"
	"github.com/jhagel/campushub/backend/pkg/config"
	"github.com/jhagel/campushub/backend/pkg/firebase"
	"github.com/jhagel/campushub/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	// Initialize Firebase
	ctx := context.Background()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	// Notification delivery collaborators
	mailer, err := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		Sender:   cfg.MailSender,
	})
	if err != nil {
		log.Fatalf("Failed to initialize mailer: %v", err)
	}
	runner := tasks.NewRunner(4, 256, logger)

	// Create Echo instance
	e := echo.New()
	config.SetupMiddleware(e, logger)
	e.Validator = validators.NewValidator()

	// Setup routes and dependencies
	digests, err := router.SetupRoutes(e, db.Postgres, db.Mongo, firebaseApp.AuthClient, mailer, runner, logger)
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	if err := digests.Start(); err != nil {
		log.Fatalf("Failed to start digest scheduler: %v", err)
	}

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			logger.Info("server stopped", "error", err)
		}
	}()

	// Graceful shutdown: stop accepting requests, halt the digest cron and
	// drain the task runner so in-flight notifications land in storage.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	digests.Stop()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		logger.Error("task runner shutdown", "error", err)
	}
}
