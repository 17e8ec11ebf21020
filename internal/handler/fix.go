package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/geoquery/geoquery/internal/models"
)

// Fix handles POST /api/v1/fix
func (h *GenerateHandler) Fix(w http.ResponseWriter, r *http.Request) {
	var req models.FixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.SQL == "" {
		models.WriteError(w, http.StatusBadRequest, "sql is required")
		return
	}
	if req.Error == "" {
		models.WriteError(w, http.StatusBadRequest, "error is required")
		return
	}

	provider, err := h.assistant.Provider(req.Provider)
	if err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	apiKey := r.Header.Get("X-API-Key")
	start := time.Now()
	result, err := h.assistant.FixSQL(r.Context(), req.SQL, req.Error, provider, deref(req.Model))
	fixMs := time.Since(start).Milliseconds()
	if err != nil {
		h.auditLogger.LogGeneration(req.SQL, apiKey, string(provider), "", false, fixMs)
		models.WriteError(w, providerStatus(err), "fix failed: "+err.Error())
		return
	}

	validationMsg := ""
	if result.SQL != "" {
		validationMsg = h.sqlVal.Validate(result.SQL)
	}
	h.auditLogger.LogGeneration(req.SQL, apiKey, string(provider), result.SQL, validationMsg == "", fixMs)

	models.WriteJSON(w, http.StatusOK, models.GenerateResponse{
		Status:      "success",
		Provider:    string(provider),
		SQL:         result.SQL,
		Explanation: result.Explanation,
	})
}
