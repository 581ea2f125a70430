package importer

import (
	"context"
	"fmt"

	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/recipefile"
	"github.com/starford/larder/internal/storage"
)

// Lister is the read side of the recipe service used by Export.
type Lister interface {
	ListRecipes(ctx context.Context) ([]models.Recipe, error)
}

// Export writes every recipe in the catalog as a YAML file and returns the
// written paths. Existing files with the same name are overwritten.
func Export(ctx context.Context, src Lister, files storage.Provider) ([]string, error) {
	recipes, err := src.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(recipes))
	for i := range recipes {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		data, err := recipefile.Marshal(recipes[i].Input())
		if err != nil {
			return paths, fmt.Errorf("export %s: %w", recipes[i].ID, err)
		}
		name := recipefile.FileName(recipes[i])
		if err := files.Write(name, data); err != nil {
			return paths, fmt.Errorf("export %s: %w", recipes[i].ID, err)
		}
		paths = append(paths, name)
	}
	return paths, nil
}
