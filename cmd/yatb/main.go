package main

import (
	"context"
	"os"

	"github.com/platforma-dev/yatb/application"
	"github.com/platforma-dev/yatb/bot"
	"github.com/platforma-dev/yatb/config"
	"github.com/platforma-dev/yatb/database"
	"github.com/platforma-dev/yatb/extension"
	"github.com/platforma-dev/yatb/extensions/errorhandler"
	"github.com/platforma-dev/yatb/extensions/general"
	"github.com/platforma-dev/yatb/log"
	"github.com/platforma-dev/yatb/scheduler"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	log.SetDefault(log.New(os.Stdout, log.Format(cfg.LogFormat), cfg.LogLevel))

	db, err := database.New(cfg.Database)
	if err != nil {
		log.ErrorContext(ctx, "failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	console := bot.NewConsole(os.Stdin, os.Stdout, "console")
	b := bot.New(cfg.Prefix, console)

	registry := extension.NewRegistry()
	for name, ext := range map[string]extension.Extension{
		general.Name:      general.New(),
		errorhandler.Name: errorhandler.New(),
	} {
		if err := registry.Register(name, ext); err != nil {
			log.ErrorContext(ctx, "failed to register extension", "extension", name, "error", err)
			os.Exit(1)
		}
	}

	app := application.New(cfg, db, b, registry)
	app.LoadExtensions(general.Name, errorhandler.Name)

	app.RegisterService("console", application.RunnerFunc(func(ctx context.Context) error {
		return console.Listen(ctx, b)
	}))

	if cfg.HealthAddr != "" {
		app.RegisterService("health", application.NewHealthServer(cfg.HealthAddr, app))
	}

	if cfg.PoolStatsSchedule != "" {
		poolStats, err := scheduler.New("pool-stats", cfg.PoolStatsSchedule, application.RunnerFunc(db.LogStats))
		if err != nil {
			log.ErrorContext(ctx, "invalid pool stats schedule", "error", err)
			os.Exit(1)
		}
		app.RegisterService("pool-stats", poolStats)
	}

	if err := app.Run(ctx); err != nil {
		log.ErrorContext(ctx, "application stopped with error", "error", err)
		os.Exit(1) //nolint:gocritic
	}
}
