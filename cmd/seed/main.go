// Command seed fills the configured post store with demo reports and announcements.
package main

import (
	"log"
	"log/slog"
	"os"

	"smartbarangay/internal/config"
	"smartbarangay/internal/middleware"
	"smartbarangay/internal/seed"
	"smartbarangay/internal/server"
	"smartbarangay/internal/store"

	"github.com/urfave/cli/v2"
)

func main() {
	defaults := seed.DefaultOptions()
	app := cli.App{
		Name:   "seed",
		Usage:  "fill the post slots with demo data",
		Action: run,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "citizens", Value: defaults.Citizens, Usage: "number of distinct citizen authors"},
			&cli.IntFlag{Name: "reports", Value: defaults.Reports, Usage: "number of citizen report posts"},
			&cli.IntFlag{Name: "announcements", Value: defaults.Announcements, Usage: "number of admin announcements"},
			&cli.IntFlag{Name: "days", Value: defaults.MaxDays, Usage: "spread posts over this many days"},
			&cli.Int64Flag{Name: "seed", EnvVars: []string{"SEED_RANDOM"}, Usage: "random seed for reproducible data"},
			&cli.BoolFlag{Name: "append", Usage: "keep existing posts"},
			&cli.BoolFlag{Name: "dry-run", Usage: "build posts without writing them"},
			&cli.BoolFlag{Name: "reset", Usage: "remove both post slots and exit"},
		},
		ErrWriter: os.Stderr,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cmd *cli.Context) error {
	ctx := cmd.Context

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	middleware.Logger = middleware.NewLogger(cfg.Env)

	deps, err := server.ConnectDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	if cmd.Bool("reset") {
		return seed.Reset(ctx, store.New(deps.KV))
	}

	f := seed.NewFactory(seed.Options{
		Citizens:      cmd.Int("citizens"),
		Reports:       cmd.Int("reports"),
		Announcements: cmd.Int("announcements"),
		MaxDays:       cmd.Int("days"),
		Seed:          cmd.Int64("seed"),
		DryRun:        cmd.Bool("dry-run"),
		Append:        cmd.Bool("append"),
	})

	res, err := f.Run(ctx, store.New(deps.KV))
	if err != nil {
		return err
	}

	middleware.Logger.Info("seed finished",
		slog.String("store", cfg.StoreBackend),
		slog.Int("citizen_posts", len(res.Citizen)),
		slog.Int("admin_posts", len(res.Admin)),
		slog.Bool("dry_run", cmd.Bool("dry-run")),
	)
	return nil
}
