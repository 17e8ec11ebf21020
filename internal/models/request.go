package models

// GenerateRequest for POST /api/v1/generate
type GenerateRequest struct {
	Prompt   string  `json:"prompt"`
	Provider *string `json:"provider,omitempty"` // overrides the configured default
	Model    *string `json:"model,omitempty"`
	Execute  bool    `json:"execute"` // run the generated SQL immediately
	Timeout  int     `json:"timeout"` // seconds
}

func (r *GenerateRequest) SetDefaults() {
	if r.Timeout == 0 {
		r.Timeout = 300
	}
	if r.Timeout < 10 {
		r.Timeout = 10
	}
	if r.Timeout > 600 {
		r.Timeout = 600
	}
}

// ExecuteRequest for POST /api/v1/execute (direct SQL)
type ExecuteRequest struct {
	SQL       string `json:"sql"`
	LayerName string `json:"layer_name,omitempty"` // save results as a named layer
	Timeout   int    `json:"timeout"`              // seconds
}

func (r *ExecuteRequest) SetDefaults() {
	if r.Timeout == 0 {
		r.Timeout = 60
	}
	if r.Timeout < 1 {
		r.Timeout = 1
	}
	if r.Timeout > 300 {
		r.Timeout = 300
	}
}

// FixRequest for POST /api/v1/fix
type FixRequest struct {
	SQL      string  `json:"sql"`
	Error    string  `json:"error"`
	Provider *string `json:"provider,omitempty"`
	Model    *string `json:"model,omitempty"`
}

// SuggestRequest for POST /api/v1/suggest
type SuggestRequest struct {
	Prompt   string  `json:"prompt,omitempty"` // empty means the default suggestion prompt
	Provider *string `json:"provider,omitempty"`
	Model    *string `json:"model,omitempty"`
}

// ImageRequest for POST /api/v1/image-to-code
type ImageRequest struct {
	ImageBase64 string  `json:"image_base64"`
	MediaType   string  `json:"media_type,omitempty"` // defaults to image/png
	Provider    *string `json:"provider,omitempty"`
	Model       *string `json:"model,omitempty"`
}

func (r *ImageRequest) SetDefaults() {
	if r.MediaType == "" {
		r.MediaType = "image/png"
	}
}
