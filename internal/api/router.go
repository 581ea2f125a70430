package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/starford/larder/internal/recipeservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// corsOrigins, if non-empty, enables the CORS allow list.
func NewRouter(svc *recipeservice.Service, authEnabled bool, token string, sseHandler http.Handler, corsOrigins []string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         600,
		}))
	}
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", h.ListRecipes)
		r.Post("/", h.CreateRecipe)
		r.Delete("/", h.ClearRecipes)
		r.Post("/bulk", h.BulkCreateRecipes)
		r.Get("/{id}", h.GetRecipe)
		r.Put("/{id}", h.UpdateRecipe)
		r.Delete("/{id}", h.DeleteRecipe)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
