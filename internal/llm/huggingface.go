package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HuggingFace implements Querier for the hosted inference API. The body is
// a single inputs field; the response is usually a list of objects with a
// generated_text field, but other shapes are tolerated and stringified.
type HuggingFace struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

var _ Querier = (*HuggingFace)(nil)

// NewHuggingFace creates a HuggingFace inference provider.
func NewHuggingFace(apiKey, model string) (*HuggingFace, error) {
	if apiKey == "" {
		return nil, newErr(ProviderHuggingFace, ErrMisconfigured, "HF_API_KEY not set")
	}
	if model == "" {
		model = "HuggingFaceH4/zephyr-7b-beta"
	}
	return &HuggingFace{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api-inference.huggingface.co/models",
		client:  &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (h *HuggingFace) Name() string {
	return fmt.Sprintf("HuggingFace (%s)", h.model)
}

func (h *HuggingFace) Query(ctx context.Context, req Request) (string, error) {
	if len(req.Images) > 0 {
		return "", newErr(ProviderHuggingFace, ErrRejected, "image input not supported")
	}

	model := req.Model
	if model == "" {
		model = h.model
	}

	prompt := req.Prompt
	if req.SystemPrompt != "" {
		prompt = req.SystemPrompt + "\n\n" + req.Prompt
	}

	payload, err := json.Marshal(map[string]string{"inputs": prompt})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/"+model, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return "", newErr(ProviderHuggingFace, ErrUnavailable, "request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newErr(ProviderHuggingFace, ErrUnavailable, "read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", newErr(ProviderHuggingFace, ErrRejected, "status %d: %s", resp.StatusCode, string(respBody))
	}

	// Preferred shape: [{"generated_text": "..."}]. Anything else comes
	// back stringified so the parser still has something to work with.
	var list []struct {
		GeneratedText *string `json:"generated_text"`
	}
	if err := json.Unmarshal(respBody, &list); err == nil && len(list) > 0 && list[0].GeneratedText != nil {
		return *list[0].GeneratedText, nil
	}
	return string(bytes.TrimSpace(respBody)), nil
}
