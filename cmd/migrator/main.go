package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"redub/cfg"
	"redub/db"
)

func main() {
	var cfgPath, migrationsDir string
	flag.StringVar(&cfgPath, "cfg-path", "cfg/cfg.yaml", "path to config file")
	flag.StringVar(&migrationsDir, "migrations", "", "read migrations from this folder instead of the embedded ones")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	conf, err := cfg.Load(cfgPath)
	if err != nil {
		logger.Error("can't load config", "path", cfgPath, "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	database, err := db.New(ctx, &conf.DB)
	if err != nil {
		logger.Error("failed to init postgre db", "err", err)
		os.Exit(1)
	}
	defer database.Close()

	migrations := db.Migrations()
	if migrationsDir != "" {
		migrations = os.DirFS(migrationsDir)
	}

	applied, err := database.Migrate(ctx, migrations, logger)
	if err != nil {
		logger.Error("migration failed", "err", err)
		os.Exit(1)
	}

	logger.Info("migrations applied", "count", len(applied))
}
