package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/geoquery/geoquery/internal/config"
	"github.com/geoquery/geoquery/internal/executor"
	"github.com/rs/zerolog/log"
)

type Server struct {
	cfg    *config.Config
	http   *http.Server
	source executor.Source // held for graceful close
}

func New(cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	router, source, err := s.setupRoutes()
	if err != nil {
		return nil, fmt.Errorf("setup routes: %w", err)
	}
	s.source = source

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.GenerateTimeout+30) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := s.http.Shutdown(shutdownCtx)

		if s.source != nil {
			if closeErr := s.source.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("error closing data source")
			} else {
				log.Info().Str("kind", string(s.source.Kind())).Msg("data source closed")
			}
		}

		return err
	case err := <-errCh:
		return err
	}
}
