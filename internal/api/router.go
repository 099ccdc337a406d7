package api

import (
	"database/sql"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/devportal/user-registry/internal/api/handler"
	"github.com/devportal/user-registry/internal/api/middleware"
	"github.com/devportal/user-registry/internal/core/domain"
	"github.com/devportal/user-registry/internal/core/ports"
	"github.com/devportal/user-registry/internal/core/service"
	"github.com/devportal/user-registry/internal/infrastructure/db/postgres"
	redicache "github.com/devportal/user-registry/internal/infrastructure/db/redis"
	"github.com/devportal/user-registry/internal/infrastructure/queue/rabbitmq"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *sql.DB, rdb *redis.Client, broker *rabbitmq.Connection, sink ports.EventSink, jwtSecret string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("user_registry"))

	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Dependencies ---
	userRepo := postgres.NewUserRepository(db)
	userCache := redicache.NewUserCache(rdb)
	userService := service.NewUserService(userRepo, userCache, sink, log)
	userHandler := handler.NewUserHandler(userService)
	authMiddleware := middleware.Auth(jwtSecret)

	// --- User lifecycle routes ---
	admin := middleware.RBAC(domain.CallerRoleAdmin)
	anyCaller := middleware.RBAC(domain.CallerRoleAdmin, domain.CallerRoleViewer)

	users := e.Group("/users", authMiddleware)
	users.POST("", userHandler.Create, admin)
	users.GET("", userHandler.List, anyCaller)
	users.GET("/availability", userHandler.Availability, admin)
	users.GET("/:id", userHandler.Get, anyCaller)
	users.PATCH("/:id", userHandler.Update, admin)
	users.POST("/:id/disable", userHandler.Disable, admin)
	users.POST("/:id/enable", userHandler.Enable, admin)
	users.DELETE("/:id", userHandler.Delete, admin)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb, broker)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Metrics ---
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
