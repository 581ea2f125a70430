package internal

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Database.DSN = filepath.Join(t.TempDir(), "larder.db")
	return cfg
}

const flapjacks = "title: Flapjacks\ncategory: Snack\nservings: 12\ninstructions:\n  - Melt.\n  - Bake.\n"

func TestRun_RequiresConfig(t *testing.T) {
	assert.Error(t, Run(context.Background()))
}

func TestImportExportCommands(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	quiet := WithLogOutput(io.Discard)

	require.NoError(t, RunMigrate(ctx, WithConfig(cfg), quiet))

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "flapjacks.yaml"), []byte(flapjacks), 0o644))

	res, err := RunImport(ctx, src, WithConfig(cfg), quiet)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 0, res.Failed)

	out := filepath.Join(t.TempDir(), "export")
	paths, err := RunExport(ctx, out, WithConfig(cfg), quiet)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.FileExists(t, filepath.Join(out, paths[0]))
}

func TestRunExport_RefusesImportDir(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Import.Dir = t.TempDir()
	quiet := WithLogOutput(io.Discard)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Import.Dir, "flapjacks.yaml"), []byte(flapjacks), 0o644))
	_, err := RunImport(ctx, cfg.Import.Dir, WithConfig(cfg), quiet)
	require.NoError(t, err)

	for _, dir := range []string{cfg.Import.Dir, filepath.Join(cfg.Import.Dir, "backup")} {
		_, err := RunExport(ctx, dir, WithConfig(cfg), quiet)
		assert.ErrorIs(t, err, ErrExportIntoImportDir, "export to %s", dir)
	}
	entries, err := os.ReadDir(cfg.Import.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "nothing written into the import dir")

	sibling := filepath.Join(filepath.Dir(cfg.Import.Dir), filepath.Base(cfg.Import.Dir)+"-export")
	paths, err := RunExport(ctx, sibling, WithConfig(cfg), quiet)
	require.NoError(t, err)
	assert.Len(t, paths, 1, "sibling with a shared name prefix is allowed")
}

func TestIsWithin(t *testing.T) {
	root := filepath.Join(t.TempDir(), "recipes")
	for path, want := range map[string]bool{
		root:                                  true,
		filepath.Join(root, "a", "b"):         true,
		filepath.Join(root, "..", "other"):    false,
		root + "-copy":                        false,
		filepath.Join(root, "..", "..recipe"): false,
	} {
		got, err := isWithin(path, root)
		require.NoError(t, err)
		assert.Equal(t, want, got, "isWithin(%s)", path)
	}
}

func TestRunImport_MissingDir(t *testing.T) {
	_, err := RunImport(context.Background(), filepath.Join(t.TempDir(), "nope"),
		WithConfig(testConfig(t)), WithLogOutput(io.Discard))
	assert.Error(t, err)
}
