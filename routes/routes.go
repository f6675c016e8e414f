package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/oba/server/app"
	"github.com/oba/server/internal/observability"
	"github.com/oba/server/models"
	"github.com/oba/server/utils"
)

// PublicPrefixes are reachable without an access token
var PublicPrefixes = []string{
	"/api/auth",
	"/api/status",
	"/healthz",
	"/readyz",
}

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	if timeout := deps.Config.Server.RequestTimeout; timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Everything outside PublicPrefixes requires a valid access token
	r.Use(deps.AuthMiddleware.Gate(PublicPrefixes...))

	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", deps.HealthHandler.HandleStatus)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", deps.AuthHandler.HandleSignUp)
			r.Post("/login", deps.AuthHandler.HandleLogin)
			r.Post("/reissue", deps.AuthHandler.HandleReissue)
			r.Get("/oauth2/{provider}", deps.OAuthHandler.HandleLogin)
			r.Get("/oauth2/{provider}/callback", deps.OAuthHandler.HandleCallback)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/logout", deps.UserHandler.HandleLogout)
			r.Get("/me", deps.UserHandler.HandleMe)
			r.Delete("/me", deps.UserHandler.HandleDeleteAccount)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireRole(models.RoleAdmin))
			r.Get("/users/{id}", deps.AdminHandler.HandleGetUser)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})

	return r
}
