package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/geoquery/geoquery/internal/executor"
	"github.com/geoquery/geoquery/internal/models"
	"github.com/geoquery/geoquery/internal/schema"
	"github.com/geoquery/geoquery/internal/security"
)

// ExecuteHandler handles direct SQL execution against the data source
type ExecuteHandler struct {
	source      executor.Source
	schemas     *schema.Service
	sqlVal      *security.SQLValidator
	auditLogger *security.AuditLogger
}

func NewExecuteHandler(
	source executor.Source,
	schemas *schema.Service,
	sqlVal *security.SQLValidator,
	auditLogger *security.AuditLogger,
) *ExecuteHandler {
	return &ExecuteHandler{
		source:      source,
		schemas:     schemas,
		sqlVal:      sqlVal,
		auditLogger: auditLogger,
	}
}

// Execute handles POST /api/v1/execute
func (h *ExecuteHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req models.ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SetDefaults()

	if req.SQL == "" {
		models.WriteError(w, http.StatusBadRequest, "sql is required")
		return
	}
	if errMsg := h.sqlVal.Validate(req.SQL); errMsg != "" {
		models.WriteError(w, http.StatusBadRequest, "SQL validation failed: "+errMsg)
		return
	}

	apiKey := r.Header.Get("X-API-Key")
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(req.Timeout)*time.Second)
	defer cancel()

	start := time.Now()
	res, err := h.source.Execute(ctx, req.SQL)
	execMs := time.Since(start).Milliseconds()
	if err != nil {
		h.auditLogger.LogExecution(req.SQL, apiKey, string(h.source.Kind()), execMs, 0, false, err.Error())
		models.WriteError(w, http.StatusInternalServerError, "query execution failed: "+err.Error())
		return
	}
	h.auditLogger.LogExecution(req.SQL, apiKey, string(h.source.Kind()), execMs, res.RowCount, true, "")

	message := res.Message
	if req.LayerName != "" && len(res.Rows) > 0 {
		if err := h.source.CreateLayer(ctx, req.LayerName, res); err != nil {
			models.WriteError(w, http.StatusInternalServerError, "layer creation failed: "+err.Error())
			return
		}
		// New table means the cached catalog is stale
		h.schemas.Invalidate()
		message = "results saved as layer " + req.LayerName
	}

	models.WriteJSON(w, http.StatusOK, models.QueryResponse{
		Status:          "success",
		Data:            res.Rows,
		Columns:         res.Columns,
		RowCount:        res.RowCount,
		Message:         message,
		ExecutionTimeMs: execMs,
	})
}
