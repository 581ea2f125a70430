package recipestore

import (
	"context"
	"fmt"
	"strings"
)

// schemaSQL is the fixed relational layout. {{ts}} is replaced with the
// dialect's timestamp type before execution.
var schemaSQL = []string{
	`CREATE TABLE IF NOT EXISTS recipes (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT,
		category    TEXT NOT NULL,
		prep_time   INTEGER NOT NULL,
		cook_time   INTEGER NOT NULL,
		servings    INTEGER NOT NULL,
		created_at  {{ts}} NOT NULL,
		updated_at  {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ingredients (
		id          TEXT PRIMARY KEY,
		recipe_id   TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		amount      TEXT NOT NULL,
		unit        TEXT NOT NULL,
		order_index INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS instructions (
		id          TEXT PRIMARY KEY,
		recipe_id   TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		step_number INTEGER NOT NULL,
		instruction TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recipes_category ON recipes(category)`,
	`CREATE INDEX IF NOT EXISTS idx_ingredients_recipe_id ON ingredients(recipe_id)`,
	`CREATE INDEX IF NOT EXISTS idx_instructions_recipe_id ON instructions(recipe_id)`,

	// Bookkeeping for files loaded by the importer.
	`CREATE TABLE IF NOT EXISTS recipe_imports (
		path      TEXT PRIMARY KEY,
		checksum  TEXT NOT NULL,
		recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recipe_imports_recipe_id ON recipe_imports(recipe_id)`,
}

// migrate applies the schema. Every statement is idempotent.
func (s *Store) migrate(ctx context.Context) error {
	ts := "TIMESTAMP"
	if s.driver == DriverPostgres {
		ts = "TIMESTAMPTZ"
	}
	for _, stmt := range schemaSQL {
		if _, err := s.conn.ExecContext(ctx, strings.ReplaceAll(stmt, "{{ts}}", ts)); err != nil {
			return fmt.Errorf("recipestore: apply schema: %w", err)
		}
	}
	return nil
}

// Migrate re-applies the schema; used by the migrate command.
func (s *Store) Migrate(ctx context.Context) error {
	return s.migrate(ctx)
}
