package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rinniizz/crudapi/internal/auth"
	"github.com/rinniizz/crudapi/internal/handlers"
	"github.com/rinniizz/crudapi/internal/middleware"
	"github.com/rinniizz/crudapi/internal/models"
	pkghttp "github.com/rinniizz/crudapi/pkg/http"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes
type Handlers struct {
	Auth   *handlers.AuthHandler
	User   *handlers.UserHandler
	Health *handlers.HealthHandler
}

// Options carries the route-level settings
type Options struct {
	APIPrefix     string
	Tokens        auth.TokenVerifier
	AuthRateLimit middleware.RateLimitConfig
	IPConfig      *pkghttp.IPConfig
	// Metrics serves /metrics when non-nil
	Metrics http.Handler
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, h Handlers, opts Options) {
	// Set before mounting so the API sub-router inherits them
	router.NotFound(notFound)
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteMethodNotAllowed(w)
	})

	router.Get("/", h.Health.Info)
	router.Get("/health", h.Health.Health)
	if opts.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	authenticate := auth.Authenticate(opts.Tokens)
	staff := auth.RequireRole(models.RoleAdmin, models.RoleModerator)
	adminOnly := auth.RequireRole(models.RoleAdmin)

	router.Route(opts.APIPrefix, func(r chi.Router) {
		r.Get("/health", h.Health.Health)

		r.Route("/auth", func(r chi.Router) {
			// Public routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(opts.AuthRateLimit, opts.IPConfig))
				r.Post("/register", h.Auth.Register)
				r.Post("/login", h.Auth.Login)
			})

			// Any authenticated user
			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Get("/profile", h.Auth.Profile)
				r.Post("/refresh", h.Auth.Refresh)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/me", h.User.GetMe)
			r.Put("/me", h.User.UpdateMe)

			r.With(staff).Get("/", h.User.ListUsers)
			r.With(staff).Get("/{id}", h.User.GetUser)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Put("/{id}", h.User.UpdateUser)
				r.Delete("/{id}", h.User.DeleteUser)
			})
		})
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteNotFound(w, "Not found - "+r.URL.Path)
}
