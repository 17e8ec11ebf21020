package handler

import (
	"net/http"

	"github.com/geoquery/geoquery/internal/executor"
	"github.com/geoquery/geoquery/internal/models"
	"github.com/geoquery/geoquery/internal/schema"
)

// SchemaHandler exposes the introspected data source catalog
type SchemaHandler struct {
	schemas *schema.Service
}

func NewSchemaHandler(schemas *schema.Service) *SchemaHandler {
	return &SchemaHandler{schemas: schemas}
}

// Get handles GET /api/v1/schema
func (h *SchemaHandler) Get(w http.ResponseWriter, r *http.Request) {
	cat, err := h.schemas.Get(r.Context())
	if err != nil {
		models.WriteError(w, http.StatusInternalServerError, "schema introspection failed: "+err.Error())
		return
	}
	models.WriteJSON(w, http.StatusOK, toSchemaResponse(cat))
}

// Refresh handles POST /api/v1/schema/refresh. It drops the cached
// catalog and introspects the source again.
func (h *SchemaHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.schemas.Invalidate()
	cat, err := h.schemas.Get(r.Context())
	if err != nil {
		models.WriteError(w, http.StatusInternalServerError, "schema introspection failed: "+err.Error())
		return
	}
	models.WriteJSON(w, http.StatusOK, toSchemaResponse(cat))
}

func toSchemaResponse(cat *executor.Catalog) models.SchemaResponse {
	layers := make([]models.LayerSummary, len(cat.Layers))
	for i, l := range cat.Layers {
		layers[i] = models.LayerSummary{
			Name:         l.Name,
			GeometryType: l.GeometryType,
			FeatureCount: l.FeatureCount,
			Fields:       l.Fields,
		}
	}
	return models.SchemaResponse{
		Status:      "success",
		DBType:      cat.DBType,
		CRS:         cat.CRS,
		Tables:      cat.Tables,
		TableFields: cat.TableFields,
		Layers:      layers,
		ActiveLayer: cat.ActiveLayer,
	}
}
