package api

import (
	"net/http"

	"github.com/dom/notely/internal/api/handlers"
	"github.com/dom/notely/internal/api/middleware"
	"github.com/dom/notely/internal/api/response"
	"github.com/dom/notely/internal/config"
	"github.com/dom/notely/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(services *service.Services, cfg *config.Config, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(middleware.CORS(cfg.CORSOrigin))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, "OK", nil)
	})

	authHandler := handlers.NewAuthHandler(services.Auth, log)
	noteHandler := handlers.NewNoteHandler(services.Note, log)
	profileHandler := handlers.NewProfileHandler(services.Profile, log)
	requireAuth := middleware.Auth(services.Auth, log)

	r.Route("/api", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
				r.Post("/password", profileHandler.ChangePassword)
			})
		})

		// Everything below belongs to the caller only
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/entries", func(r chi.Router) {
				r.Post("/", noteHandler.Create)
				r.Get("/", noteHandler.List)
				r.Get("/trash", noteHandler.ListTrash)
				r.Get("/favorites", noteHandler.ListFavorites)
			})

			r.Route("/entry", func(r chi.Router) {
				r.Get("/{id}", noteHandler.Get)
				r.Patch("/{id}", noteHandler.Update)
				r.Delete("/{id}", noteHandler.Trash)
				r.Get("/{id}/history", noteHandler.History)

				r.Get("/trash/{id}", noteHandler.GetTrashed)
				r.Patch("/restore/{id}", noteHandler.Restore)
				r.Delete("/permanent/{id}", noteHandler.Purge)
				r.Patch("/favorite/{id}", noteHandler.SetFavorite)
			})

			r.Route("/user", func(r chi.Router) {
				r.Get("/", profileHandler.GetProfile)
				r.Patch("/", profileHandler.UpdateProfile)
				r.Get("/profile", profileHandler.GetProfile)
				r.Patch("/profile", profileHandler.UpdateProfile)
				r.Post("/avatar", profileHandler.AvatarUploadURL)
			})
		})
	})

	return r
}
