package models

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// GenerateResponse is returned by POST /api/v1/generate and /api/v1/fix
type GenerateResponse struct {
	Status      string         `json:"status"`
	Prompt      string         `json:"prompt,omitempty"`
	Provider    string         `json:"provider"`
	SQL         string         `json:"sql"`
	Explanation string         `json:"explanation,omitempty"`
	Execution   *QueryResponse `json:"execution,omitempty"`
}

// QueryResponse is returned by POST /api/v1/execute
type QueryResponse struct {
	Status          string                   `json:"status"`
	Data            []map[string]interface{} `json:"data"`
	Columns         []string                 `json:"columns"`
	RowCount        int                      `json:"row_count"`
	Message         string                   `json:"message,omitempty"`
	ExecutionTimeMs int64                    `json:"execution_time_ms"`
}

// SuggestResponse is returned by POST /api/v1/suggest
type SuggestResponse struct {
	Status      string   `json:"status"`
	Provider    string   `json:"provider"`
	Suggestions []string `json:"suggestions"`
}

// ImageResponse is returned by POST /api/v1/image-to-code. SQL and Python
// are generated independently; either may be empty while the other is not.
type ImageResponse struct {
	Status      string `json:"status"`
	Description string `json:"description"`
	SQL         string `json:"sql,omitempty"`
	Python      string `json:"python,omitempty"`
}

// SchemaResponse is returned by GET /api/v1/schema
type SchemaResponse struct {
	Status      string              `json:"status"`
	DBType      string              `json:"db_type"`
	CRS         string              `json:"crs,omitempty"`
	Tables      []string            `json:"tables"`
	TableFields map[string][]string `json:"table_fields"`
	Layers      []LayerSummary      `json:"layers,omitempty"`
	ActiveLayer string              `json:"active_layer,omitempty"`
}

// LayerSummary is the wire form of one vector layer.
type LayerSummary struct {
	Name         string   `json:"name"`
	GeometryType string   `json:"geometry_type,omitempty"`
	FeatureCount int64    `json:"feature_count"`
	Fields       []string `json:"fields"`
}
