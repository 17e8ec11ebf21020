package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/geoquery/geoquery/internal/assistant"
	"github.com/geoquery/geoquery/internal/executor"
	"github.com/geoquery/geoquery/internal/models"
	"github.com/geoquery/geoquery/internal/security"
)

// GenerateHandler handles natural-language SQL generation and repair
type GenerateHandler struct {
	assistant   *assistant.Assistant
	source      executor.Source
	promptVal   *security.PromptValidator
	sqlVal      *security.SQLValidator
	auditLogger *security.AuditLogger
}

func NewGenerateHandler(
	ai *assistant.Assistant,
	source executor.Source,
	promptVal *security.PromptValidator,
	sqlVal *security.SQLValidator,
	auditLogger *security.AuditLogger,
) *GenerateHandler {
	return &GenerateHandler{
		assistant:   ai,
		source:      source,
		promptVal:   promptVal,
		sqlVal:      sqlVal,
		auditLogger: auditLogger,
	}
}

// Generate handles POST /api/v1/generate
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SetDefaults()

	if req.Prompt == "" {
		models.WriteError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if v := h.promptVal.Validate(req.Prompt); !v.Valid {
		models.WriteError(w, http.StatusBadRequest, "prompt validation failed: "+v.Message)
		return
	}

	provider, err := h.assistant.Provider(req.Provider)
	if err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	apiKey := r.Header.Get("X-API-Key")
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(req.Timeout)*time.Second)
	defer cancel()

	start := time.Now()
	result, err := h.assistant.GenerateSQL(ctx, req.Prompt, provider, deref(req.Model))
	genMs := time.Since(start).Milliseconds()
	if err != nil {
		h.auditLogger.LogGeneration(req.Prompt, apiKey, string(provider), "", false, genMs)
		models.WriteError(w, providerStatus(err), "generation failed: "+err.Error())
		return
	}

	validationMsg := ""
	if result.SQL != "" {
		validationMsg = h.sqlVal.Validate(result.SQL)
	}
	h.auditLogger.LogGeneration(req.Prompt, apiKey, string(provider), result.SQL, validationMsg == "", genMs)

	resp := models.GenerateResponse{
		Status:      "success",
		Prompt:      req.Prompt,
		Provider:    string(provider),
		SQL:         result.SQL,
		Explanation: result.Explanation,
	}

	if req.Execute && result.SQL != "" {
		if validationMsg != "" {
			models.WriteError(w, http.StatusBadRequest, "generated SQL failed validation: "+validationMsg)
			return
		}
		resp.Execution = h.runGenerated(ctx, result.SQL, apiKey)
	}

	models.WriteJSON(w, http.StatusOK, resp)
}

// runGenerated executes generated SQL inline. Execution failure does not
// fail the request; the SQL is still returned so the client can call /fix.
func (h *GenerateHandler) runGenerated(ctx context.Context, sqlText, apiKey string) *models.QueryResponse {
	start := time.Now()
	res, err := h.source.Execute(ctx, sqlText)
	execMs := time.Since(start).Milliseconds()
	if err != nil {
		h.auditLogger.LogExecution(sqlText, apiKey, string(h.source.Kind()), execMs, 0, false, err.Error())
		return &models.QueryResponse{Status: "error", Message: err.Error(), ExecutionTimeMs: execMs}
	}

	h.auditLogger.LogExecution(sqlText, apiKey, string(h.source.Kind()), execMs, res.RowCount, true, "")
	return &models.QueryResponse{
		Status:          "success",
		Data:            res.Rows,
		Columns:         res.Columns,
		RowCount:        res.RowCount,
		Message:         res.Message,
		ExecutionTimeMs: execMs,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
