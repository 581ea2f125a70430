package recipestore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/larder/internal/models"
)

// pgStore opens the PostgreSQL database named by LARDER_TEST_PG_DSN and
// empties the catalog before and after the test. Tests skip when unset.
func pgStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("LARDER_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("LARDER_TEST_PG_DSN not set")
	}
	s, err := Open(DriverPostgres, dsn)
	require.NoError(t, err, "Open")

	ctx := context.Background()
	_, err = s.DeleteAll(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.DeleteAll(ctx)
		s.Close()
	})
	return s
}

// pgFailOn adds a check constraint rejecting rows whose column equals value.
func pgFailOn(t *testing.T, s *Store, table, column, value string) {
	t.Helper()
	name := "larder_test_fail_" + table
	_, err := s.conn.Exec(`ALTER TABLE ` + table + ` ADD CONSTRAINT ` + name +
		` CHECK (` + column + ` <> '` + value + `')`)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.conn.Exec(`ALTER TABLE ` + table + ` DROP CONSTRAINT IF EXISTS ` + name)
	})
}

func pgCount(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.conn.QueryRow(`SELECT count(*) FROM `+table).Scan(&n))
	return n
}

func TestPostgres_RoundTrip(t *testing.T) {
	s := pgStore(t)
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx), "schema is idempotent")

	in := pancakes()
	created, err := s.Create(ctx, in)
	require.NoError(t, err)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt), "createdAt %v != %v", got.CreatedAt, created.CreatedAt)
	assert.True(t, got.UpdatedAt.Equal(created.UpdatedAt))

	back := got.Input()
	for i := range back.Ingredients {
		assert.Equal(t, created.Ingredients[i].ID, back.Ingredients[i].ID)
		back.Ingredients[i].ID = ""
	}
	assert.Equal(t, in, back)

	time.Sleep(2 * time.Millisecond)
	upd := pancakes()
	upd.Title = "Crêpes"
	upd.Instructions = []string{"Beat", "Pour thin", "Flip", "Fold"}
	updated, err := s.Update(ctx, created.ID, upd)
	require.NoError(t, err)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	var steps int
	require.NoError(t, s.conn.QueryRow(s.rebind(`SELECT count(*) FROM instructions WHERE recipe_id = ?`), created.ID).Scan(&steps))
	assert.Equal(t, 4, steps)

	second := pancakes()
	second.Title = "Waffles"
	_, err = s.Create(ctx, second)
	require.NoError(t, err)
	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Waffles", all[0].Title, "newest first")

	require.NoError(t, s.Delete(ctx, created.ID))
	require.NoError(t, s.Delete(ctx, created.ID), "delete is idempotent")
	assert.Equal(t, len(second.Ingredients), pgCount(t, s, "ingredients"), "children cascade")
}

func TestPostgres_CreateAtomicOnChildFailure(t *testing.T) {
	s := pgStore(t)
	pgFailOn(t, s, "instructions", "instruction", "boom")

	in := pancakes()
	in.Instructions = []string{"ok", "boom"}
	_, err := s.Create(context.Background(), in)
	require.Error(t, err)

	assert.Zero(t, pgCount(t, s, "recipes"), "no orphan parent row")
	assert.Zero(t, pgCount(t, s, "ingredients"), "no orphan ingredients")
}

func TestPostgres_UpdateAtomicOnChildFailure(t *testing.T) {
	s := pgStore(t)
	ctx := context.Background()
	original, err := s.Create(ctx, pancakes())
	require.NoError(t, err)

	pgFailOn(t, s, "ingredients", "name", "boom")

	in := pancakes()
	in.Title = "Ruined"
	in.Ingredients = []models.Ingredient{{Name: "Sugar"}, {Name: "boom"}}
	_, err = s.Update(ctx, original.ID, in)
	require.Error(t, err)

	got, err := s.Get(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", got.Title)
	assert.True(t, got.UpdatedAt.Equal(original.UpdatedAt))
	assert.Equal(t, original.Ingredients, got.Ingredients)
}

func TestPostgres_CreateManyAllOrNothing(t *testing.T) {
	s := pgStore(t)
	bad := pancakes()
	bad.Ingredients = []models.Ingredient{{Name: "boom"}}
	pgFailOn(t, s, "ingredients", "name", "boom")

	_, err := s.CreateMany(context.Background(), []models.RecipeInput{pancakes(), bad})
	require.Error(t, err)
	assert.Zero(t, pgCount(t, s, "recipes"))
}

func TestPostgres_ImportUpsert(t *testing.T) {
	s := pgStore(t)
	ctx := context.Background()

	r, created, err := s.ImportRecipe(ctx, "soup.yaml", "c1", pancakes())
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := s.ImportRecipe(ctx, "soup.yaml", "c2", pancakes())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, r.ID, again.ID)

	sums, err := s.ImportedChecksums(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"soup.yaml": "c2"}, sums)

	id, err := s.ForgetImport(ctx, "soup.yaml")
	require.NoError(t, err)
	assert.Equal(t, r.ID, id)
}
