package router

import (
	"net/http"

	"vton-rest-api/internal/handler"
	"vton-rest-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler           *handler.Handler
	AuthHandler       *handler.AuthHandler
	GenerationHandler *handler.GenerationHandler
	CreditsHandler    *handler.CreditsHandler
	AdminHandler      *handler.AdminHandler
	AuthMiddleware    func(http.Handler) http.Handler
	AdminMiddleware   func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Token", "X-Login-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
		r.Get("/api/v1/health", cfg.Handler.Health)
		r.Get("/api/v1/ready", cfg.Handler.Ready)
	}

	if cfg.AuthHandler != nil {
		r.Route("/api/v1/auth", func(r chi.Router) {
			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)
			r.Post("/logout", cfg.AuthHandler.Logout)
		})
	}

	if cfg.CreditsHandler != nil {
		// The package table is public so the pricing page works
		// without a session.
		r.Get("/api/v1/credits/packages", cfg.CreditsHandler.Packages)
	}

	// AUTHENTICATED routes
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/api/v1", func(r chi.Router) {
			if cfg.GenerationHandler != nil {
				r.Post("/generate", cfg.GenerationHandler.Generate)
				r.Get("/user/history", cfg.GenerationHandler.History)
			}

			if cfg.CreditsHandler != nil {
				r.Get("/user/me", cfg.CreditsHandler.Me)
				r.Get("/user/stats", cfg.CreditsHandler.Stats)
				r.Get("/user/purchases", cfg.CreditsHandler.Purchases)
				r.Post("/checkin", cfg.CreditsHandler.Checkin)
				r.Get("/checkin/status", cfg.CreditsHandler.CheckinStatus)
				r.Get("/checkin/history", cfg.CreditsHandler.Checkins)
			}
		})
	})

	// ADMIN routes, guarded by the X-Login-Key middleware
	if cfg.AdminHandler != nil {
		r.Group(func(r chi.Router) {
			if cfg.AdminMiddleware != nil {
				r.Use(cfg.AdminMiddleware)
			}

			r.Route("/api/v1/admin", func(r chi.Router) {
				r.Get("/stats", cfg.AdminHandler.GetStats)
				r.Post("/purchase", cfg.AdminHandler.ApplyPurchase)
			})
		})
	}

	return r
}
