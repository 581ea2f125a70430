// Package importer keeps the recipe catalog in step with a directory of
// recipe files.
package importer

import (
	"context"
	"log/slog"

	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/recipefile"
	"github.com/starford/larder/internal/storage"
)

// Catalog is the part of the recipe service the importer writes through.
type Catalog interface {
	ImportFile(ctx context.Context, path, checksum string, in models.RecipeInput) (*models.Recipe, error)
	ForgetFile(ctx context.Context, path string) error
	ImportedChecksums(ctx context.Context) (map[string]string, error)
}

// Result summarises one Sync pass.
type Result struct {
	Imported  int `json:"imported"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
	Failed    int `json:"failed"`
}

// Sync walks the directory and brings the catalog up to date:
//   - new/changed files are parsed and imported
//   - recipes whose file was removed are deleted
//
// A file that fails to parse or validate is logged and skipped; its
// previously imported recipe, if any, is left untouched.
func Sync(ctx context.Context, cat Catalog, files storage.Provider, logger *slog.Logger) (Result, error) {
	var res Result

	metas, err := files.List("")
	if err != nil {
		return res, err
	}
	checksums, err := cat.ImportedChecksums(ctx)
	if err != nil {
		return res, err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			res.Unchanged++
			continue
		}
		if err := importFile(ctx, cat, files, m); err != nil {
			res.Failed++
			logger.Warn("sync: import failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		res.Imported++
		logger.Debug("sync: imported", slog.String("path", m.Path))
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := cat.ForgetFile(ctx, p); err != nil {
			res.Failed++
			logger.Warn("sync: remove failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		res.Removed++
		logger.Debug("sync: removed stale", slog.String("path", p))
	}

	return res, nil
}

func importFile(ctx context.Context, cat Catalog, files storage.Provider, m models.FileMetadata) error {
	data, err := files.Read(m.Path)
	if err != nil {
		return err
	}
	in, err := recipefile.Parse(data)
	if err != nil {
		return err
	}
	_, err = cat.ImportFile(ctx, m.Path, m.Checksum, in)
	return err
}
