package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/geoquery/geoquery/internal/assistant"
	"github.com/geoquery/geoquery/internal/models"
	"github.com/geoquery/geoquery/internal/security"
)

// SuggestHandler handles context-aware operation suggestions
type SuggestHandler struct {
	assistant *assistant.Assistant
	promptVal *security.PromptValidator
}

func NewSuggestHandler(ai *assistant.Assistant, promptVal *security.PromptValidator) *SuggestHandler {
	return &SuggestHandler{assistant: ai, promptVal: promptVal}
}

// Suggest handles POST /api/v1/suggest. An empty body or empty prompt
// asks for the default suggestion set.
func (h *SuggestHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req models.SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.Prompt != "" {
		if v := h.promptVal.Validate(req.Prompt); !v.Valid {
			models.WriteError(w, http.StatusBadRequest, "prompt validation failed: "+v.Message)
			return
		}
	}

	provider, err := h.assistant.Provider(req.Provider)
	if err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	suggestions, err := h.assistant.Suggestions(r.Context(), req.Prompt, provider, deref(req.Model))
	if err != nil {
		models.WriteError(w, providerStatus(err), "suggestion failed: "+err.Error())
		return
	}

	models.WriteJSON(w, http.StatusOK, models.SuggestResponse{
		Status:      "success",
		Provider:    string(provider),
		Suggestions: suggestions,
	})
}
