package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mcdev12/tunequiz/go/internal/dbconfig"
	"github.com/rs/zerolog/log"
)

func setupDatabase(ctx context.Context) (*sql.DB, error) {
	dbConfig := dbconfig.NewConfigFromEnv()

	database, err := dbConfig.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	log.Info().
		Str("user", dbConfig.User).
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("connected to database")
	return database, nil
}
