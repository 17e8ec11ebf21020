package server

import (
	"context"
	"net/http"

	"github.com/geoquery/geoquery/internal/assistant"
	"github.com/geoquery/geoquery/internal/executor"
	"github.com/geoquery/geoquery/internal/handler"
	"github.com/geoquery/geoquery/internal/llm"
	"github.com/geoquery/geoquery/internal/middleware"
	"github.com/geoquery/geoquery/internal/schema"
	"github.com/geoquery/geoquery/internal/security"
	"github.com/geoquery/geoquery/internal/vision"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// setupRoutes returns (router, source, error) so the source can be closed
// on shutdown
func (s *Server) setupRoutes() (http.Handler, executor.Source, error) {
	cfg := s.cfg
	ctx := context.Background()

	// ─── Data source ─────────────────────────────────────────────────────────────
	source, err := executor.Open(ctx, cfg.DataSource)
	if err != nil {
		return nil, nil, err
	}
	schemas := schema.NewService(source)

	// ─── LLM providers ───────────────────────────────────────────────────────────
	dispatch, err := llm.NewDispatcher(cfg.LLM)
	if err != nil {
		source.Close()
		return nil, nil, err
	}

	// ─── Vision collaborator ─────────────────────────────────────────────────────
	var describer assistant.Describer
	if cfg.VisionEndpoint != "" && cfg.VisionKey != "" {
		visionClient, visionErr := vision.NewClient(cfg.VisionEndpoint, cfg.VisionKey)
		if visionErr != nil {
			log.Warn().Err(visionErr).Msg("vision service unavailable, image description falls back to the vision model")
		} else {
			describer = visionClient
		}
	} else {
		log.Info().Msg("no vision credentials configured, image description uses the vision model")
	}

	// ─── Security ────────────────────────────────────────────────────────────────
	promptVal := security.NewPromptValidator(cfg.MaxPromptLength)
	sqlVal := security.NewSQLValidator(cfg.AllowWriteSQL)
	auditLogger := security.NewAuditLogger(cfg.EnableAuditLogging)

	log.Info().
		Str("data_source", cfg.DataSource.Kind).
		Bool("vision_enabled", describer != nil).
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Bool("write_sql_allowed", cfg.AllowWriteSQL).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Msg("service configuration")

	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("WARNING: auth enabled but no API keys configured - all API requests will be rejected")
	}

	// ─── Handlers ────────────────────────────────────────────────────────────────
	ai := assistant.New(dispatch, schemas, describer)

	healthH := handler.NewHealthHandler(source, dispatch)
	generateH := handler.NewGenerateHandler(ai, source, promptVal, sqlVal, auditLogger)
	executeH := handler.NewExecuteHandler(source, schemas, sqlVal, auditLogger)
	suggestH := handler.NewSuggestHandler(ai, promptVal)
	imageH := handler.NewImageHandler(ai)
	schemaH := handler.NewSchemaHandler(schemas)

	// ─── Router ──────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(chiMiddleware.RealIP)

	// Public routes
	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)
	r.Handle("/metrics", promhttp.Handler())

	// Auth + rate limiting for API routes
	apiMiddleware := []func(http.Handler) http.Handler{
		middleware.RateLimit(cfg.RateLimitPerMinute),
	}
	if cfg.EnableAuth && len(cfg.APIKeys) > 0 {
		apiMiddleware = append(apiMiddleware, middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
	}

	r.Group(func(r chi.Router) {
		for _, m := range apiMiddleware {
			r.Use(m)
		}

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Post("/generate", generateH.Generate)
			r.Post("/fix", generateH.Fix)
			r.Post("/execute", executeH.Execute)
			r.Post("/suggest", suggestH.Suggest)
			r.Post("/image-to-code", imageH.ImageToCode)
			r.Get("/schema", schemaH.Get)
			r.Post("/schema/refresh", schemaH.Refresh)
		})
	})

	return r, source, nil
}
