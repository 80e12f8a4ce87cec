package router

import (
	"log"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pulse-social/backend/internal/events"
	"github.com/pulse-social/backend/internal/handlers"
	"github.com/pulse-social/backend/internal/hydration"
	"github.com/pulse-social/backend/internal/media"
	"github.com/pulse-social/backend/internal/middleware"
	"github.com/pulse-social/backend/internal/models"
	"github.com/pulse-social/backend/internal/realtime"
	"github.com/pulse-social/backend/internal/repositories"
	"github.com/pulse-social/backend/pkg/config"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies.
// The bus is wired here too: the notification pipeline subscribes before the
// caller starts the workers.
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *config.DB, bus *events.Bus, registry *realtime.Registry) {
	// AutoMigrate PostgreSQL models
	err := db.Postgres.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Like{},
		&models.Follow{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	postRepo := repositories.NewPostgresPostRepository(db.Postgres)
	likeRepo := repositories.NewPostgresLikeRepository(db.Postgres)
	followRepo := repositories.NewPostgresFollowRepository(db.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(db.Postgres)

	hydrator := hydration.NewHydrator(postRepo, likeRepo, followRepo, userRepo)

	// Notification pipeline: committed events drain into persisted rows and
	// live pushes.
	notifier := events.NewNotifier(notificationRepo, userRepo, registry)
	bus.Subscribe(notifier.Handle)
	log.Println("Notification pipeline subscribed to event bus.")

	// --- Public routes (viewer optional: guests pass through anonymously) ---
	api := e.Group("/api/v1")
	api.Use(middleware.OptionalJWTAuthMiddleware(cfg.JWTSecret))

	// --- Protected routes (require JWT authentication) ---
	authed := e.Group("/api/v1")
	authed.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	// Feed routes
	feedHandler := handlers.NewFeedHandler(postRepo, hydrator, db.Redis)
	feedHandler.RegisterFeedRoutes(api)
	log.Println("Feed routes configured.")

	// Post routes
	postHandler := handlers.NewPostHandler(postRepo, hydrator, bus, media.NewLogPurger())
	postHandler.RegisterPostRoutes(api, authed)
	log.Println("Post routes configured.")

	// Like routes
	likeHandler := handlers.NewLikeHandler(likeRepo, postRepo, bus)
	likeHandler.RegisterLikeRoutes(authed)
	log.Println("Like routes configured.")

	// Repost routes
	repostHandler := handlers.NewRepostHandler(postRepo, bus)
	repostHandler.RegisterRepostRoutes(authed)
	log.Println("Repost routes configured.")

	// Follow routes
	followHandler := handlers.NewFollowHandler(followRepo, userRepo, bus)
	followHandler.RegisterFollowRoutes(authed)
	log.Println("Follow routes configured.")

	// Discovery routes
	discoveryHandler := handlers.NewDiscoveryHandler(userRepo)
	discoveryHandler.RegisterDiscoveryRoutes(api)
	log.Println("Discovery routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo, registry, cfg.StreamIdleTime)
	notificationHandler.RegisterNotificationRoutes(authed)
	log.Println("Notification routes configured.")

	log.Println("All routes configured.")
}
