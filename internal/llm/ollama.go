package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/geoquery/geoquery/internal/observability"
	"github.com/rs/zerolog/log"
)

const (
	ollamaMaxAttempts = 3
	ollamaRetryDelay  = 2 * time.Second
)

// Ollama targets a locally-run inference process over HTTP. Unlike the
// hosted providers it retries connection failures: the local process may
// still be starting up when the first request arrives.
type Ollama struct {
	baseURL    string
	model      string
	client     *http.Client
	retryDelay time.Duration
}

var _ Querier = (*Ollama)(nil)

// NewOllama creates an Ollama provider. No credential is required.
func NewOllama(baseURL, model string, timeout time.Duration) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "phi3"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Ollama{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		client:     &http.Client{Timeout: timeout},
		retryDelay: ollamaRetryDelay,
	}
}

func (o *Ollama) Name() string {
	return fmt.Sprintf("Ollama (%s)", o.model)
}

func (o *Ollama) Query(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	// The generate endpoint takes a single prompt; the system prompt is
	// prefixed rather than sent as a separate role.
	prompt := req.Prompt
	if req.SystemPrompt != "" {
		prompt = req.SystemPrompt + "\n\n" + req.Prompt
	}

	body := map[string]interface{}{
		"model":  model,
		"prompt": prompt,
		"stream": false,
	}
	if len(req.Images) > 0 {
		images := make([]string, len(req.Images))
		for i, img := range req.Images {
			images[i] = img.Data
		}
		body["images"] = images
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= ollamaMaxAttempts; attempt++ {
		log.Info().
			Str("base_url", o.baseURL).
			Str("model", model).
			Int("attempt", attempt).
			Int("max_attempts", ollamaMaxAttempts).
			Msg("connecting to ollama")

		text, err := o.call(ctx, payload)
		if err == nil {
			log.Info().Str("model", model).Msg("ollama query successful")
			return text, nil
		}
		lastErr = err

		// Only connection-refused and timeouts are retried; anything else
		// (bad status, malformed body) fails immediately.
		if !retryableNetErr(err) {
			return "", err
		}
		if attempt < ollamaMaxAttempts {
			observability.IncrementProviderRetry(string(ProviderOllama))
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Dur("retry_delay", o.retryDelay).
				Msg("ollama connection failed, retrying")
			select {
			case <-time.After(o.retryDelay):
			case <-ctx.Done():
				return "", newErr(ProviderOllama, ErrUnavailable, "canceled while retrying: %v", ctx.Err())
			}
		}
	}

	log.Error().
		Err(lastErr).
		Int("attempts", ollamaMaxAttempts).
		Str("base_url", o.baseURL).
		Msg("ollama unreachable after retries")
	return "", newErr(ProviderOllama, ErrUnavailable,
		"could not connect to %s after %d attempts: %v (is the ollama server running and is model %q pulled?)",
		o.baseURL, ollamaMaxAttempts, lastErr, model)
}

func (o *Ollama) call(ctx context.Context, payload []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", newErr(ProviderOllama, ErrRejected, "status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", newErr(ProviderOllama, ErrRejected, "malformed response: %v", err)
	}
	return strings.TrimSpace(result.Response), nil
}

// retryableNetErr reports whether err is a connection-refused or timeout
// condition worth retrying against a local process.
func retryableNetErr(err error) bool {
	if err == nil {
		return false
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return false // already classified (rejected/malformed), never retried
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return false
}
