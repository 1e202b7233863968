package router

import (
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/auth"
	"github.com/jhagel/campushub/backend/internal/handlers"
	"github.com/jhagel/campushub/backend/internal/middleware"
	"github.com/jhagel/campushub/backend/internal/models"
	"github.com/jhagel/campushub/backend/internal/notify"
	"github.com/jhagel/campushub/backend/internal/relationships"
	"github.com/jhagel/campushub/backend/internal/repositories"
	"github.com/jhagel/campushub/backend/internal/tasks"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupRoutes migrates the relational schema, wires the repositories, services
// and notification machinery, and registers all application routes. It returns
// the digest scheduler so the caller controls its lifecycle.
func SetupRoutes(
	e *echo.Echo,
	pgdb *gorm.DB,
	mgClient *mongo.Client,
	firebaseAuthClient *auth.Client,
	mailer notify.Mailer,
	runner *tasks.Runner,
	logger *slog.Logger,
) (*notify.DigestScheduler, error) {
	err := pgdb.AutoMigrate(
		&models.Account{},
		&models.Friendship{},
		&models.Group{},
		&models.GroupAccount{},
		&models.Notification{},
	)
	if err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Repositories ---
	mongoDB := mgClient.Database("campushub")
	accountRepo := repositories.NewPostgresAccountRepository(pgdb)
	friendshipRepo := repositories.NewPostgresFriendshipRepository(pgdb)
	groupRepo := repositories.NewPostgresGroupRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	postRepo := repositories.NewMongoPostRepository(mongoDB)
	mediaRepo := repositories.NewMongoMediaRepository(mongoDB)

	// --- Notification machinery ---
	renderer := notify.NewTemplateRenderer()
	dispatcher := notify.NewDispatcher(notificationRepo, accountRepo, groupRepo, renderer, renderer, mailer, runner, logger)
	digests := notify.NewDigestScheduler(notificationRepo, renderer, mailer, logger)

	// --- Domain services ---
	friendshipService := relationships.NewFriendshipService(friendshipRepo, accountRepo, dispatcher, logger)
	membershipService := relationships.NewMembershipService(groupRepo, friendshipRepo, accountRepo, dispatcher, logger)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(accountRepo, firebaseAuthClient)
	authHandler.RegisterAuthRoutes(authGroup)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())

	accountHandler := handlers.NewAccountHandler(accountRepo)
	accountHandler.RegisterProfileRoutes(api)

	friendshipHandler := handlers.NewFriendshipHandler(friendshipService, friendshipRepo, accountRepo)
	friendshipHandler.RegisterFriendshipRoutes(api)

	groupHandler := handlers.NewGroupHandler(membershipService, groupRepo, accountRepo)
	groupHandler.RegisterGroupRoutes(api)

	postHandler := handlers.NewPostHandler(postRepo, accountRepo, groupRepo, friendshipRepo, notificationRepo, dispatcher)
	postHandler.RegisterPostRoutes(api)

	mediaHandler := handlers.NewMediaHandler(mediaRepo, groupRepo, accountRepo, notificationRepo, dispatcher)
	mediaHandler.RegisterMediaRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	notificationHandler.RegisterNotificationRoutes(api)

	adminHandler := handlers.NewAdminHandler(accountRepo, dispatcher)
	adminHandler.RegisterAdminRoutes(api)

	logger.Info("routes configured")
	return digests, nil
}
