package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/geoquery/geoquery/internal/executor"
	"github.com/geoquery/geoquery/internal/llm"
	"github.com/geoquery/geoquery/internal/models"
)

const version = "1.0.0"

// HealthHandler handles GET /health with a data source connectivity check
type HealthHandler struct {
	source   executor.Source
	dispatch *llm.Dispatcher
}

func NewHealthHandler(source executor.Source, dispatch *llm.Dispatcher) *HealthHandler {
	return &HealthHandler{source: source, dispatch: dispatch}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"server": "ok"}
	overallStatus := "healthy"

	// Short timeout so a hung data source cannot block the probe
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.source != nil {
		if _, err := h.source.Describe(ctx); err != nil {
			checks[string(h.source.Kind())] = "unavailable: " + err.Error()
			overallStatus = "degraded"
		} else {
			checks[string(h.source.Kind())] = "ok"
		}
	} else {
		checks["data_source"] = "disabled"
	}

	if h.dispatch != nil {
		checks["llm_provider"] = string(h.dispatch.Default())
	}

	statusCode := http.StatusOK
	if overallStatus == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	models.WriteJSON(w, statusCode, models.HealthResponse{
		Status:  overallStatus,
		Version: version,
		Checks:  checks,
	})
}
