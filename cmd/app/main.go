package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/larder/internal"
	pkgconfig "github.com/starford/larder/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if dsn := cmd.String("db"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if driver := cmd.String("driver"); driver != "" {
		cfg.Database.Driver = driver
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx,
		internal.WithConfig(cfg),
		internal.WithVersion(version),
		internal.WithLogOutput(os.Stderr))
}

func importDir(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		return fmt.Errorf("usage: larder import <dir>")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	res, err := internal.RunImport(ctx, dir, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	fmt.Printf("imported %d, unchanged %d, removed %d, failed %d\n",
		res.Imported, res.Unchanged, res.Removed, res.Failed)
	if res.Failed > 0 {
		return cli.Exit("some recipe files could not be imported", 1)
	}
	return nil
}

func exportDir(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		return fmt.Errorf("usage: larder export <dir>")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	paths, err := internal.RunExport(ctx, dir, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func migrate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMigrate(ctx, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:    "larder",
		Usage:   "Recipe catalog server with a REST API, live updates and MCP tools",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (optional)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "driver",
				Usage:   "Database driver: sqlite or postgres",
				Sources: cli.EnvVars("DB_DRIVER"),
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "Database DSN (SQLite file path or postgres:// URL)",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:      "import",
				Usage:     "Load YAML/JSON recipe files from a directory",
				ArgsUsage: "<dir>",
				Action:    importDir,
			},
			{
				Name:      "export",
				Usage:     "Write every recipe to a directory as YAML",
				ArgsUsage: "<dir>",
				Action:    exportDir,
			},
			{
				Name:   "migrate",
				Usage:  "Create or update the database schema",
				Action: migrate,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
