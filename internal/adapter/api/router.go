package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/V4T54L/waste-watch/internal/adapter/api/handler"
	"github.com/V4T54L/waste-watch/internal/adapter/api/middleware"
	"github.com/V4T54L/waste-watch/internal/pkg/config"
	"github.com/V4T54L/waste-watch/internal/usecase"
)

// NewRouter creates and configures the main HTTP router for the dashboard API.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	gate *usecase.SessionGate,
	pager *usecase.LogPager,
	viewers *usecase.ViewerRegistry,
	limiter *middleware.IPRateLimiter,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handler.NewAuthHandler(gate, viewers, logger)
	adminHandler := handler.NewAdminHandler(gate, logger)
	logsHandler := handler.NewLogsHandler(pager, viewers, logger)

	r.Get("/health", adminHandler.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(limiter, logger)).Post("/signin", authHandler.SignIn)
			r.With(middleware.RateLimit(limiter, logger)).Post("/signup", authHandler.SignUp)
			r.Post("/signout", authHandler.SignOut)
			r.Get("/session", authHandler.Session)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(gate, logger))

			r.Get("/users/{id}", adminHandler.GetUserProfile)
			r.Get("/admins/{email}", adminHandler.CheckAdmin)
			r.Get("/logs", logsHandler.ListLogs)

			r.Get("/viewer", logsHandler.Viewer)
			r.Post("/viewer/next", logsHandler.Next)
			r.Post("/viewer/prev", logsHandler.Prev)
			r.Post("/viewer/refresh", logsHandler.Refresh)
		})
	})

	return r
}
