package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/recipeservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *recipeservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *recipeservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListRecipes handles GET /api/recipes.
//
//	@Summary		List all recipes, newest first
//	@Tags			recipes
//	@Produce		json
//	@Success		200	{array}	Recipe
//	@Security		BearerAuth
//	@Router			/recipes [get]
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.svc.ListRecipes(r.Context())
	if err != nil {
		writeError(w, "list recipes", err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

// GetRecipe handles GET /api/recipes/{id}.
//
//	@Summary		Get a single recipe
//	@Tags			recipes
//	@Produce		json
//	@Param			id	path		string	true	"Recipe id"
//	@Success		200	{object}	Recipe
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes/{id} [get]
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	recipe, err := h.svc.GetRecipe(r.Context(), id)
	if err != nil {
		writeError(w, "get recipe", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// CreateRecipe handles POST /api/recipes.
//
//	@Summary		Create a recipe
//	@Tags			recipes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RecipeRequest	true	"Recipe to create"
//	@Success		201		{object}	Recipe
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes [post]
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req RecipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	recipe, err := h.svc.CreateRecipe(r.Context(), req)
	if err != nil {
		writeError(w, "create recipe", err, slog.String("title", req.Title))
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

// UpdateRecipe handles PUT /api/recipes/{id}.
//
//	@Summary		Replace a recipe's fields, ingredients and instructions
//	@Tags			recipes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Recipe id"
//	@Param			body	body		RecipeRequest	true	"Replacement recipe"
//	@Success		200		{object}	Recipe
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes/{id} [put]
func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req RecipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	recipe, err := h.svc.UpdateRecipe(r.Context(), id, req)
	if err != nil {
		writeError(w, "update recipe", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// DeleteRecipe handles DELETE /api/recipes/{id}. Unknown ids succeed.
//
//	@Summary		Delete a recipe
//	@Tags			recipes
//	@Produce		json
//	@Param			id	path		string	true	"Recipe id"
//	@Success		200	{object}	SuccessResponse
//	@Security		BearerAuth
//	@Router			/recipes/{id} [delete]
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteRecipe(r.Context(), id); err != nil {
		writeError(w, "delete recipe", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// BulkCreateRecipes handles POST /api/recipes/bulk. The body is a JSON
// array; either every recipe is stored or none is.
//
//	@Summary		Create many recipes at once
//	@Tags			recipes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		[]RecipeRequest	true	"Recipes to create"
//	@Success		200		{object}	CountResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes/bulk [post]
func (h *Handler) BulkCreateRecipes(w http.ResponseWriter, r *http.Request) {
	var req []models.RecipeInput
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.svc.CreateRecipes(r.Context(), req)
	if err != nil {
		writeError(w, "bulk create recipes", err, slog.Int("count", len(req)))
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Success: true, Count: n})
}

// ClearRecipes handles DELETE /api/recipes.
//
//	@Summary		Delete every recipe
//	@Tags			recipes
//	@Produce		json
//	@Success		200	{object}	CountResponse
//	@Security		BearerAuth
//	@Router			/recipes [delete]
func (h *Handler) ClearRecipes(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ClearRecipes(r.Context())
	if err != nil {
		writeError(w, "clear recipes", err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Success: true, Count: int(n)})
}
