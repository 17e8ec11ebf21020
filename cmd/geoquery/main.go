package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/geoquery/geoquery/internal/config"
	"github.com/geoquery/geoquery/internal/observability"
	"github.com/geoquery/geoquery/internal/server"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}

	observability.SetupLogger(cfg.LogLevel, cfg.Environment)

	srv, err := server.New(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize server")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}
