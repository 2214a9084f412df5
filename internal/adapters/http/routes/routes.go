package routes

import (
	"context"
	"time"

	"e-nagarpalika-portal/internal/adapters/http/handlers"
	"e-nagarpalika-portal/internal/adapters/http/middleware"
	"e-nagarpalika-portal/internal/config"
	"e-nagarpalika-portal/internal/core/services"
	"e-nagarpalika-portal/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
)

// Dependencies are the services the HTTP layer is built on
type Dependencies struct {
	Config       *config.Config
	Auth         *services.AuthService
	Applications *services.ApplicationService
	Dashboard    *services.DashboardService
	HealthCheck  func(ctx context.Context) error
}

// Setup configures all routes for the application
func Setup(app *fiber.App, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.Config.AppMode, deps.HealthCheck)
	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Config)
	applicationHandler := handlers.NewApplicationHandler(deps.Applications)
	dashboardHandler := handlers.NewDashboardHandler(deps.Dashboard)

	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	app.Get("/swagger/*", swagger.HandlerDefault)

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	auth := middleware.AuthMiddleware(deps.Auth)

	setupAuthRoutes(apiV1.Group("/auth"), authHandler, auth)
	setupApplicationRoutes(apiV1.Group("/applications", middleware.NoCacheHeaders()), applicationHandler, auth)

	dashboardRoutes := apiV1.Group("/dashboard")
	dashboardRoutes.Use(auth)
	dashboardRoutes.Get("/", middleware.PrivateCacheHeaders(15*time.Second), dashboardHandler.GetDashboard)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, auth fiber.Handler) {
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	router.Get("/me", auth, handler.Me)
	router.Post("/logout-all", auth, handler.LogoutAll)
}

// setupApplicationRoutes configures application routes. /track is public and
// registered before /:id so it is not captured as an id.
func setupApplicationRoutes(router fiber.Router, handler *handlers.ApplicationHandler, auth fiber.Handler) {
	router.Get("/track", middleware.TrackRateLimiter(), handler.Track)

	router.Post("/", auth, handler.Submit)
	router.Get("/", auth, handler.List)
	router.Get("/:id", auth, handler.Get)
	router.Put("/:id", auth, handler.Transition)
}
