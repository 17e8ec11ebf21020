package handler

import (
	"encoding/json"
	"net/http"

	"github.com/geoquery/geoquery/internal/assistant"
	"github.com/geoquery/geoquery/internal/models"
)

// ImageHandler handles workflow-diagram to code conversion
type ImageHandler struct {
	assistant *assistant.Assistant
}

func NewImageHandler(ai *assistant.Assistant) *ImageHandler {
	return &ImageHandler{assistant: ai}
}

// ImageToCode handles POST /api/v1/image-to-code
func (h *ImageHandler) ImageToCode(w http.ResponseWriter, r *http.Request) {
	var req models.ImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SetDefaults()

	if req.ImageBase64 == "" {
		models.WriteError(w, http.StatusBadRequest, "image_base64 is required")
		return
	}

	provider, err := h.assistant.Provider(req.Provider)
	if err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.assistant.ImageToCode(r.Context(), req.ImageBase64, req.MediaType, provider, deref(req.Model))
	if err != nil {
		models.WriteError(w, providerStatus(err), "image conversion failed: "+err.Error())
		return
	}

	models.WriteJSON(w, http.StatusOK, models.ImageResponse{
		Status:      "success",
		Description: result.Description,
		SQL:         result.SQL,
		Python:      result.Python,
	})
}
