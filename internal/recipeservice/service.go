// Package recipeservice coordinates the recipe store with change
// notification. HTTP, MCP and the importer all go through it.
package recipeservice

import (
	"context"
	"log/slog"

	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/recipestore"
)

// Event kinds passed to a Notifier.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
	EventCleared = "cleared"
)

// Notifier receives a callback after every successful write.
type Notifier interface {
	PublishRecipeEvent(kind, id string)
}

// Service wraps a recipe repository.
type Service struct {
	repo     recipestore.Repository
	notifier Notifier
	logger   *slog.Logger
}

// NewService creates a service. notifier may be nil.
func NewService(repo recipestore.Repository, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// ListRecipes returns every recipe, newest first. The result is never nil.
func (s *Service) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	recipes, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(recipes), nil
}

// GetRecipe returns one recipe or apperr.ErrNotFound.
func (s *Service) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	return s.repo.Get(ctx, id)
}

// CreateRecipe stores a new recipe.
func (s *Service) CreateRecipe(ctx context.Context, in models.RecipeInput) (*models.Recipe, error) {
	r, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("recipe created", slog.String("id", r.ID), slog.String("title", r.Title))
	s.notify(EventCreated, r.ID)
	return r, nil
}

// CreateRecipes stores a batch of recipes atomically and returns how many
// were inserted.
func (s *Service) CreateRecipes(ctx context.Context, ins []models.RecipeInput) (int, error) {
	if len(ins) == 0 {
		return 0, nil
	}
	recipes, err := s.repo.CreateMany(ctx, ins)
	if err != nil {
		return 0, err
	}
	s.logger.Info("recipes bulk created", slog.Int("count", len(recipes)))
	for _, r := range recipes {
		s.notify(EventCreated, r.ID)
	}
	return len(recipes), nil
}

// UpdateRecipe replaces a recipe's fields and children.
func (s *Service) UpdateRecipe(ctx context.Context, id string, in models.RecipeInput) (*models.Recipe, error) {
	r, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("recipe updated", slog.String("id", r.ID))
	s.notify(EventUpdated, r.ID)
	return r, nil
}

// DeleteRecipe removes a recipe. Missing ids succeed.
func (s *Service) DeleteRecipe(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Debug("recipe deleted", slog.String("id", id))
	s.notify(EventDeleted, id)
	return nil
}

// ClearRecipes removes every recipe and returns how many were removed.
func (s *Service) ClearRecipes(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("recipes cleared", slog.Int64("count", n))
	s.notify(EventCleared, "")
	return n, nil
}

// ImportFile creates or refreshes the recipe loaded from a file.
func (s *Service) ImportFile(ctx context.Context, path, checksum string, in models.RecipeInput) (*models.Recipe, error) {
	r, created, err := s.repo.ImportRecipe(ctx, path, checksum, in)
	if err != nil {
		return nil, err
	}
	kind := EventUpdated
	if created {
		kind = EventCreated
	}
	s.notify(kind, r.ID)
	return r, nil
}

// ForgetFile deletes the recipe that was loaded from path, if any.
func (s *Service) ForgetFile(ctx context.Context, path string) error {
	id, err := s.repo.ForgetImport(ctx, path)
	if err != nil {
		return err
	}
	if id != "" {
		s.notify(EventDeleted, id)
	}
	return nil
}

// ImportedChecksums returns the checksum recorded for each imported file.
func (s *Service) ImportedChecksums(ctx context.Context) (map[string]string, error) {
	return s.repo.ImportedChecksums(ctx)
}

// Ready reports whether the backing store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) notify(kind, id string) {
	if s.notifier != nil {
		s.notifier.PublishRecipeEvent(kind, id)
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
