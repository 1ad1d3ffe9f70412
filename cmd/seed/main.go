package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/roomlock/roomlock-server/internal/config"
	"github.com/roomlock/roomlock-server/internal/database"
	"github.com/roomlock/roomlock-server/internal/logger"
	"github.com/roomlock/roomlock-server/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Init("roomlock-seed", "development", "info")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Init("roomlock-seed", cfg.Env, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.Close()

	if err := database.Apply(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}
	res, err := seed.Run(ctx, db, cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().
		Uint64("owner_id", res.OwnerID).
		Uint64("student_id", res.StudentID).
		Int("announcements", len(res.Announcements)).
		Msg("seed complete")
}
