package recipestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/larder/internal/apperr"
	"github.com/starford/larder/internal/models"
)

const recipeColumns = `id, title, description, category, prep_time, cook_time, servings, created_at, updated_at`

// List returns every recipe, newest first, with children in stored order.
func (s *Store) List(ctx context.Context) ([]models.Recipe, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("recipestore: list recipes: %w", err)
	}

	var out []models.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("recipestore: scan recipe: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("recipestore: list recipes: %w", err)
	}
	rows.Close()

	// Children are loaded after the parent cursor is closed so a
	// single-connection pool never has two open result sets.
	for i := range out {
		if err := s.loadChildren(ctx, s.conn, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Get returns the recipe with the given id, or apperr.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*models.Recipe, error) {
	row := s.conn.QueryRowContext(ctx, s.rebind(`SELECT `+recipeColumns+` FROM recipes WHERE id = ?`), id)
	r, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("recipestore: get recipe: %w", err)
	}
	if err := s.loadChildren(ctx, s.conn, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Create validates in and inserts the recipe with its ingredients and
// instructions in one transaction.
func (s *Store) Create(ctx context.Context, in models.RecipeInput) (*models.Recipe, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	var out *models.Recipe
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		r, err := s.createTx(ctx, tx, in, now())
		out = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateMany inserts all inputs in a single transaction: either every
// recipe is stored or none is.
func (s *Store) CreateMany(ctx context.Context, ins []models.RecipeInput) ([]models.Recipe, error) {
	for i, in := range ins {
		if err := validate(in); err != nil {
			return nil, fmt.Errorf("recipe %d: %w", i, err)
		}
	}
	out := make([]models.Recipe, 0, len(ins))
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, in := range ins {
			r, err := s.createTx(ctx, tx, in, now())
			if err != nil {
				return err
			}
			out = append(out, *r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the recipe's mutable fields and its entire ingredient and
// instruction sets. created_at is preserved; updated_at is set to the time
// of this write. A missing id yields apperr.ErrNotFound.
func (s *Store) Update(ctx context.Context, id string, in models.RecipeInput) (*models.Recipe, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	var out *models.Recipe
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		r, err := s.updateTx(ctx, tx, id, in, now())
		out = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the recipe; its children go by cascade. Deleting an
// absent id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.conn.ExecContext(ctx, s.rebind(`DELETE FROM recipes WHERE id = ?`), id); err != nil {
		return fmt.Errorf("recipestore: delete recipe: %w", err)
	}
	return nil
}

// DeleteAll removes every recipe and returns how many were removed.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM recipes`)
	if err != nil {
		return 0, fmt.Errorf("recipestore: delete all: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("recipestore: delete all: %w", err)
	}
	return n, nil
}

func (s *Store) createTx(ctx context.Context, tx *sql.Tx, in models.RecipeInput, ts time.Time) (*models.Recipe, error) {
	id := uuid.NewString()
	_, err := tx.ExecContext(ctx, s.rebind(`
		INSERT INTO recipes (`+recipeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), id, in.Title, nullString(in.Description), in.Category, in.PrepTime, in.CookTime, in.Servings, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("recipestore: insert recipe: %w", err)
	}

	ingredients, err := s.insertChildren(ctx, tx, id, in)
	if err != nil {
		return nil, err
	}
	return assemble(id, in, ingredients, ts, ts), nil
}

func (s *Store) updateTx(ctx context.Context, tx *sql.Tx, id string, in models.RecipeInput, ts time.Time) (*models.Recipe, error) {
	res, err := tx.ExecContext(ctx, s.rebind(`
		UPDATE recipes SET
			title       = ?,
			description = ?,
			category    = ?,
			prep_time   = ?,
			cook_time   = ?,
			servings    = ?,
			updated_at  = ?
		WHERE id = ?
	`), in.Title, nullString(in.Description), in.Category, in.PrepTime, in.CookTime, in.Servings, ts, id)
	if err != nil {
		return nil, fmt.Errorf("recipestore: update recipe: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("recipestore: update recipe: %w", err)
	} else if n == 0 {
		return nil, apperr.ErrNotFound
	}

	// Replace children: delete all, then reinsert in submitted order.
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM ingredients WHERE recipe_id = ?`), id); err != nil {
		return nil, fmt.Errorf("recipestore: delete ingredients: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM instructions WHERE recipe_id = ?`), id); err != nil {
		return nil, fmt.Errorf("recipestore: delete instructions: %w", err)
	}
	ingredients, err := s.insertChildren(ctx, tx, id, in)
	if err != nil {
		return nil, err
	}

	var createdAt time.Time
	if err := tx.QueryRowContext(ctx, s.rebind(`SELECT created_at FROM recipes WHERE id = ?`), id).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("recipestore: read created_at: %w", err)
	}
	return assemble(id, in, ingredients, createdAt, ts), nil
}

// insertChildren bulk-inserts ingredients (order_index = position) and
// instructions (step_number = position + 1) and returns the ingredients
// with their generated ids.
func (s *Store) insertChildren(ctx context.Context, tx *sql.Tx, recipeID string, in models.RecipeInput) ([]models.Ingredient, error) {
	ingredients := make([]models.Ingredient, len(in.Ingredients))
	if len(in.Ingredients) > 0 {
		stmt, err := tx.PrepareContext(ctx, s.rebind(`
			INSERT INTO ingredients (id, recipe_id, name, amount, unit, order_index)
			VALUES (?, ?, ?, ?, ?, ?)
		`))
		if err != nil {
			return nil, fmt.Errorf("recipestore: prepare ingredient insert: %w", err)
		}
		defer stmt.Close()
		for i, ing := range in.Ingredients {
			ing.ID = uuid.NewString()
			if _, err := stmt.ExecContext(ctx, ing.ID, recipeID, ing.Name, ing.Amount, ing.Unit, i); err != nil {
				return nil, fmt.Errorf("recipestore: insert ingredient: %w", err)
			}
			ingredients[i] = ing
		}
	}

	if len(in.Instructions) > 0 {
		stmt, err := tx.PrepareContext(ctx, s.rebind(`
			INSERT INTO instructions (id, recipe_id, step_number, instruction)
			VALUES (?, ?, ?, ?)
		`))
		if err != nil {
			return nil, fmt.Errorf("recipestore: prepare instruction insert: %w", err)
		}
		defer stmt.Close()
		for i, text := range in.Instructions {
			if _, err := stmt.ExecContext(ctx, uuid.NewString(), recipeID, i+1, text); err != nil {
				return nil, fmt.Errorf("recipestore: insert instruction: %w", err)
			}
		}
	}
	return ingredients, nil
}

func (s *Store) loadChildren(ctx context.Context, q querier, r *models.Recipe) error {
	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT id, name, amount, unit
		FROM ingredients
		WHERE recipe_id = ?
		ORDER BY order_index
	`), r.ID)
	if err != nil {
		return fmt.Errorf("recipestore: load ingredients: %w", err)
	}
	r.Ingredients = []models.Ingredient{}
	for rows.Next() {
		var ing models.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.Amount, &ing.Unit); err != nil {
			rows.Close()
			return fmt.Errorf("recipestore: scan ingredient: %w", err)
		}
		r.Ingredients = append(r.Ingredients, ing)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return fmt.Errorf("recipestore: load ingredients: %w", err)
	}

	rows, err = q.QueryContext(ctx, s.rebind(`
		SELECT instruction
		FROM instructions
		WHERE recipe_id = ?
		ORDER BY step_number
	`), r.ID)
	if err != nil {
		return fmt.Errorf("recipestore: load instructions: %w", err)
	}
	defer rows.Close()
	r.Instructions = []string{}
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return fmt.Errorf("recipestore: scan instruction: %w", err)
		}
		r.Instructions = append(r.Instructions, text)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("recipestore: load instructions: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	var (
		r    models.Recipe
		desc sql.NullString
	)
	if err := row.Scan(&r.ID, &r.Title, &desc, &r.Category, &r.PrepTime, &r.CookTime, &r.Servings, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Description = desc.String
	return &r, nil
}

func assemble(id string, in models.RecipeInput, ingredients []models.Ingredient, createdAt, updatedAt time.Time) *models.Recipe {
	instructions := make([]string, len(in.Instructions))
	copy(instructions, in.Instructions)
	return &models.Recipe{
		ID:           id,
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		PrepTime:     in.PrepTime,
		CookTime:     in.CookTime,
		Servings:     in.Servings,
		Ingredients:  ingredients,
		Instructions: instructions,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

func validate(in models.RecipeInput) error {
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// now is the single timestamp used for one write. Microsecond precision
// keeps values identical across the SQLite and PostgreSQL round trip.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
