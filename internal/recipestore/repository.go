package recipestore

import (
	"context"

	"github.com/starford/larder/internal/models"
)

// Repository is the recipe persistence contract. Consumers depend on this
// interface rather than *Store so they can be tested with fakes.
type Repository interface {
	List(ctx context.Context) ([]models.Recipe, error)
	Get(ctx context.Context, id string) (*models.Recipe, error)
	Create(ctx context.Context, in models.RecipeInput) (*models.Recipe, error)
	CreateMany(ctx context.Context, ins []models.RecipeInput) ([]models.Recipe, error)
	Update(ctx context.Context, id string, in models.RecipeInput) (*models.Recipe, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
	ImportRecipe(ctx context.Context, path, checksum string, in models.RecipeInput) (*models.Recipe, bool, error)
	ImportedChecksums(ctx context.Context) (map[string]string, error)
	ForgetImport(ctx context.Context, path string) (string, error)
	Ping(ctx context.Context) error
}

// Verify *Store satisfies Repository at compile time.
var _ Repository = (*Store)(nil)
