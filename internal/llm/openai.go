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

// OpenAI implements Querier for the OpenAI chat completions API.
// The same wire shape is reused by OpenRouter with a different base URL.
type OpenAI struct {
	apiKey  string
	model   string
	baseURL string
	// extra headers sent with every request (OpenRouter attribution)
	headers map[string]string
	client  *http.Client
	name    Provider
}

var _ Querier = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(apiKey, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, newErr(ProviderOpenAI, ErrMisconfigured, "OPENAI_API_KEY not set")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAI{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.openai.com/v1",
		client:  &http.Client{Timeout: 60 * time.Second},
		name:    ProviderOpenAI,
	}, nil
}

// NewOpenRouter creates an OpenRouter provider. OpenRouter speaks the
// OpenAI chat protocol and expects attribution headers on every call.
func NewOpenRouter(apiKey, model, siteURL, appName string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, newErr(ProviderOpenRouter, ErrMisconfigured, "OPENROUTER_API_KEY not set")
	}
	if model == "" {
		model = "mistralai/mistral-7b-instruct"
	}
	return &OpenAI{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://openrouter.ai/api/v1",
		headers: map[string]string{
			"HTTP-Referer": siteURL,
			"X-Title":      appName,
		},
		client: &http.Client{Timeout: 60 * time.Second},
		name:   ProviderOpenRouter,
	}, nil
}

func (o *OpenAI) Name() string {
	return fmt.Sprintf("%s (%s)", o.name, o.model)
}

func (o *OpenAI) Query(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	var messages []map[string]interface{}
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]interface{}{
			"role": "system", "content": req.SystemPrompt,
		})
	}
	messages = append(messages, map[string]interface{}{
		"role": "user", "content": o.userContent(req),
	})

	body := map[string]interface{}{
		"model":    model,
		"messages": messages,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	for k, v := range o.headers {
		if v != "" {
			httpReq.Header.Set(k, v)
		}
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", newErr(o.name, ErrUnavailable, "request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newErr(o.name, ErrUnavailable, "read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", newErr(o.name, ErrRejected, "status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", newErr(o.name, ErrRejected, "malformed response: %v", err)
	}
	if len(result.Choices) == 0 {
		return "", newErr(o.name, ErrRejected, "no choices returned")
	}
	return result.Choices[0].Message.Content, nil
}

// userContent is a plain string for text requests and a parts array when
// images are attached (text part + data-URI image parts).
func (o *OpenAI) userContent(req Request) interface{} {
	if len(req.Images) == 0 {
		return req.Prompt
	}
	parts := []map[string]interface{}{
		{"type": "text", "text": req.Prompt},
	}
	for _, img := range req.Images {
		mediaType := img.MediaType
		if mediaType == "" {
			mediaType = "image/png"
		}
		parts = append(parts, map[string]interface{}{
			"type": "image_url",
			"image_url": map[string]string{
				"url": fmt.Sprintf("data:%s;base64,%s", mediaType, img.Data),
			},
		})
	}
	return parts
}
