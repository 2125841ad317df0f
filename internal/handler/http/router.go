package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ad-tech1009/Teams-ToDo/internal/auth"
	"github.com/Ad-tech1009/Teams-ToDo/internal/service"
	"github.com/Ad-tech1009/Teams-ToDo/pkg/health"
	"github.com/Ad-tech1009/Teams-ToDo/pkg/middleware"
)

// NewRouter creates a chi router with all API routes registered.
func NewRouter(
	userService *service.UserService,
	taskService *service.TaskService,
	tokens *auth.TokenManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
	cookieConfig CookieConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("teams-todo"))
	r.Use(middleware.PrometheusMetrics("teams-todo"))

	// Health check and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(userService, cookieConfig, logger)
	userHandler := NewUserHandler(userService, logger)
	taskHandler := NewTaskHandler(taskService, logger)

	// Auth endpoints (public)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
	})

	// User endpoints (auth required)
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokens.ValidateAccessToken))

		r.Get("/", userHandler.List)
		r.Get("/me", userHandler.GetMe)
		r.Patch("/me", userHandler.UpdateMe)
		r.Get("/{id}", userHandler.Get)
	})

	// Task endpoints (auth required)
	r.Route("/api/v1/tasks", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokens.ValidateAccessToken))

		r.Post("/", taskHandler.Create)
		r.Get("/", taskHandler.List)
		r.Get("/{id}", taskHandler.Get)
		r.Patch("/{id}", taskHandler.Update)
		r.Delete("/{id}", taskHandler.Delete)
	})

	return r
}
