package main

import (
	"log/slog"
	"os"

	"studyroom-backend/config"
	"studyroom-backend/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	log.Info("starting database seeding")

	// separate binary: load .env on its own
	if err := godotenv.Load(); err != nil {
		log.Warn(".env not found, using process environment")
	}

	cfg := config.Load()
	db, err := config.ConnectDB(cfg.Database)
	if err != nil {
		log.Error("connect database", "err", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		log.Error("migrate", "err", err)
		os.Exit(1)
	}
	if err := database.SeedAll(db, log); err != nil {
		log.Error("seed", "err", err)
		os.Exit(1)
	}
	log.Info("seeding done")
}
