package api

import "github.com/starford/larder/internal/models"

// RecipeRequest is the body of POST /recipes and PUT /recipes/{id}.
// Any id or timestamps sent by the client are ignored.
type RecipeRequest = models.RecipeInput

// Recipe is the full recipe response type (aliased from the domain layer).
type Recipe = models.Recipe

// SuccessResponse acknowledges a delete.
type SuccessResponse struct {
	Success bool `json:"success" example:"true" validate:"required"`
}

// CountResponse acknowledges a bulk create or a clear.
type CountResponse struct {
	Success bool `json:"success" example:"true" validate:"required"`
	Count   int  `json:"count" example:"8" validate:"required"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string `json:"status" example:"ok" validate:"required"`
	Timestamp string `json:"timestamp" example:"2025-01-15T10:00:00.000Z" validate:"required"`
}
