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

// Gemini implements Querier for Google's generateContent API. Its safety
// filter can suppress an entire response; that condition is surfaced as
// ErrBlocked with the filter's stated reason rather than an empty string.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

var _ Querier = (*Gemini)(nil)

// NewGemini creates a Gemini provider.
func NewGemini(apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, newErr(ProviderGoogle, ErrMisconfigured, "GOOGLE_API_KEY not set")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Gemini{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		client:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (g *Gemini) Name() string {
	return fmt.Sprintf("Gemini (%s)", g.model)
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

func (g *Gemini) Query(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	parts := []geminiPart{{Text: req.Prompt}}
	for _, img := range req.Images {
		mediaType := img.MediaType
		if mediaType == "" {
			mediaType = "image/png"
		}
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{MimeType: mediaType, Data: img.Data},
		})
	}

	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"role": "user", "parts": parts},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     0.7,
			"topP":            0.0,
			"topK":            1,
			"maxOutputTokens": 2000,
		},
		// The upstream filter defaults are too aggressive for SQL text
		// containing words like DROP; thresholds are relaxed and blocks
		// are surfaced explicitly instead.
		"safetySettings": []map[string]string{
			{"category": "HARM_CATEGORY_HATE_SPEECH", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_SEXUALLY_EXPLICIT", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_HARASSMENT", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_DANGEROUS_CONTENT", "threshold": "BLOCK_NONE"},
		},
	}
	if req.SystemPrompt != "" {
		body["systemInstruction"] = map[string]interface{}{
			"parts": []geminiPart{{Text: req.SystemPrompt}},
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", newErr(ProviderGoogle, ErrUnavailable, "request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newErr(ProviderGoogle, ErrUnavailable, "read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", newErr(ProviderGoogle, ErrRejected, "status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
			SafetyRatings []struct {
				Category    string `json:"category"`
				Probability string `json:"probability"`
			} `json:"safetyRatings"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason   string `json:"blockReason"`
			SafetyRatings []struct {
				Category    string `json:"category"`
				Probability string `json:"probability"`
			} `json:"safetyRatings"`
		} `json:"promptFeedback"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", newErr(ProviderGoogle, ErrRejected, "malformed response: %v", err)
	}

	if result.PromptFeedback.BlockReason != "" {
		return "", newErr(ProviderGoogle, ErrBlocked, "prompt blocked: %s", result.PromptFeedback.BlockReason)
	}
	if len(result.Candidates) == 0 {
		return "", newErr(ProviderGoogle, ErrRejected, "no candidates returned")
	}
	cand := result.Candidates[0]
	if len(cand.Content.Parts) == 0 {
		if cand.FinishReason == "SAFETY" {
			reason := "content blocked due to safety policies"
			for _, r := range cand.SafetyRatings {
				reason += fmt.Sprintf("; %s=%s", r.Category, r.Probability)
			}
			return "", newErr(ProviderGoogle, ErrBlocked, "%s", reason)
		}
		return "", newErr(ProviderGoogle, ErrRejected, "empty candidate (finish reason %s)", cand.FinishReason)
	}

	var text string
	for _, p := range cand.Content.Parts {
		text += p.Text
	}
	return text, nil
}
