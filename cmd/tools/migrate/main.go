// cmd/tools/migrate/main.go
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"demand-radar/internal/common/config"
	"demand-radar/internal/common/database"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: standard search locations)")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall migration timeout")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, closeDB, err := openDatabase(ctx, cfg)
	if err != nil {
		fmt.Printf("Error connecting to %s: %v\n", cfg.Database.Driver, err)
		os.Exit(1)
	}
	defer closeDB()

	store := storage.New(db, cfg.Database.Driver, log)
	if err := store.Migrate(ctx); err != nil {
		fmt.Printf("Migration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Schema ready (%s).\n", cfg.Database.Driver)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, func() error, error) {
	switch cfg.Database.Driver {
	case storage.DriverSQLite:
		lite, err := database.NewSQLite(cfg.Database.SQLite)
		if err != nil {
			return nil, nil, err
		}
		if err := lite.Ping(ctx); err != nil {
			lite.Close()
			return nil, nil, err
		}
		return lite.GetDB(), lite.Close, nil

	default:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg.GetDB(), pg.Close, nil
	}
}
