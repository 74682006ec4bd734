package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/example/daygap/internal"
	"github.com/example/daygap/internal/apperr"
	"github.com/example/daygap/internal/backfill"
	pkgconfig "github.com/example/daygap/pkg/config"
	"github.com/fatih/color"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

// loadConfig resolves the effective configuration. A missing config
// file is only an error when the path was given explicitly; otherwise
// the defaults apply.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) && !cmd.IsSet("config") {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid default config: %w", err)
		}
		return cfg, nil
	}
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runBackfill(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	rep, err := internal.RunBackfill(ctx, cfg, cmd.String("start"), cmd.String("end"), cmd.Bool("yes"))
	if err != nil {
		if errors.Is(err, apperr.ErrDailyNotesDisabled) {
			color.Red("%s", backfill.DisabledMessage)
			return cli.Exit("", 1)
		}
		return err
	}

	printBackfill(rep)
	return nil
}

func runStatus(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	rep, err := internal.RunStatus(ctx, cfg)
	if err != nil {
		return err
	}

	printStatus(rep)
	return nil
}

func runMCP(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(cfg)
}

func main() {
	cmd := &cli.Command{
		Name:   "daygap",
		Usage:  "Daily note gap detection and backfill for Markdown vaults",
		Action: runServe,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server (the default)",
				Action: runServe,
			},
			{
				Name:  "backfill",
				Usage: "List or create missing daily notes",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "start",
						Usage: "First day of the range (YYYY-MM-DD)",
					},
					&cli.StringFlag{
						Name:  "end",
						Usage: "Last day of the range (YYYY-MM-DD)",
					},
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Create the notes instead of only listing them",
					},
				},
				Action: runBackfill,
			},
			{
				Name:   "status",
				Usage:  "Show where the daily note sequence stands",
				Action: runStatus,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the daily note tools over MCP stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
