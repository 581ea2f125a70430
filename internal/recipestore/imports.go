package recipestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/larder/internal/models"
)

// ImportRecipe creates or replaces the recipe loaded from the file at path
// and records the file's checksum, all in one transaction. created reports
// whether a new recipe was inserted.
func (s *Store) ImportRecipe(ctx context.Context, path, checksum string, in models.RecipeInput) (r *models.Recipe, created bool, err error) {
	if err := validate(in); err != nil {
		return nil, false, err
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var recipeID string
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT recipe_id FROM recipe_imports WHERE path = ?`), path).Scan(&recipeID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("recipestore: lookup import: %w", err)
		}

		ts := now()
		if recipeID != "" {
			r, err = s.updateTx(ctx, tx, recipeID, in, ts)
		} else {
			created = true
			r, err = s.createTx(ctx, tx, in, ts)
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, s.rebind(`
			INSERT INTO recipe_imports (path, checksum, recipe_id)
			VALUES (?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				checksum  = excluded.checksum,
				recipe_id = excluded.recipe_id
		`), path, checksum, r.ID)
		if err != nil {
			return fmt.Errorf("recipestore: record import: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return r, created, nil
}

// ImportedChecksums returns the recorded checksum of every imported file.
func (s *Store) ImportedChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT path, checksum FROM recipe_imports`)
	if err != nil {
		return nil, fmt.Errorf("recipestore: imported checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ForgetImport deletes the recipe that was loaded from path. It returns
// the removed recipe id, or "" when path was never imported.
func (s *Store) ForgetImport(ctx context.Context, path string) (string, error) {
	var recipeID string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT recipe_id FROM recipe_imports WHERE path = ?`), path).Scan(&recipeID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("recipestore: lookup import: %w", err)
		}
		// The import row goes with the recipe by cascade.
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM recipes WHERE id = ?`), recipeID); err != nil {
			return fmt.Errorf("recipestore: forget import: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return recipeID, nil
}
