// Package main is the entry point for the CoFounder Match profile server.
//
// main stays minimal: load configuration, build the logger, hand both to
// internal/server and block until shutdown.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/cofounder-match/internal/config"
	"github.com/sakif/cofounder-match/internal/logging"
	"github.com/sakif/cofounder-match/internal/server"
)

func main() {
	// A missing .env is normal outside local development.
	envErr := godotenv.Load()

	cfg := config.Load()

	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	if envErr != nil && !os.IsNotExist(envErr) {
		logger.Warn("could not read .env", slog.String("error", envErr.Error()))
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	srv, err := server.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
