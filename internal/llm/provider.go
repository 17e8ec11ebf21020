// Package llm routes generation requests to one of several interchangeable
// language-model backends and parses the free-text responses into SQL.
//
// Each backend is a small value type implementing Querier; the Dispatcher
// selects one from a lookup table keyed on the Provider enum. Providers are
// constructed once from config at startup; a missing credential fails
// construction, never a request.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider identifies a language-model backend.
type Provider string

const (
	ProviderOllama      Provider = "ollama"
	ProviderOpenAI      Provider = "openai"
	ProviderOpenRouter  Provider = "openrouter"
	ProviderAnthropic   Provider = "anthropic"
	ProviderGoogle      Provider = "google"
	ProviderHuggingFace Provider = "huggingface"
)

// SupportedProviders lists valid provider names for display and validation.
var SupportedProviders = []Provider{
	ProviderOllama, ProviderOpenAI, ProviderOpenRouter,
	ProviderAnthropic, ProviderGoogle, ProviderHuggingFace,
}

// ParseProvider normalizes a provider name. Empty input returns ("", true)
// so callers can fall back to the configured default.
func ParseProvider(name string) (Provider, bool) {
	if name == "" {
		return "", true
	}
	p := Provider(name)
	for _, s := range SupportedProviders {
		if p == s {
			return p, true
		}
	}
	return "", false
}

// Image is an encoded image attachment for vision-capable calls.
type Image struct {
	MediaType string // e.g. "image/png"
	Data      string // base64-encoded bytes
}

// Request is a single generation request. Immutable once constructed.
type Request struct {
	Prompt       string
	SystemPrompt string
	Model        string // overrides the provider's default when non-empty
	Images       []Image
}

// Querier is the capability every backend implements: send one request,
// return raw response text. The text may be empty, never the error and
// non-empty text together.
type Querier interface {
	Query(ctx context.Context, req Request) (string, error)
	Name() string
}

// Error classification. Callers match with errors.Is against these
// sentinels; ProviderError carries the provider and remote detail.
var (
	// ErrMisconfigured: required credential or model absent. Detected at
	// construction time; no request is attempted.
	ErrMisconfigured = errors.New("provider misconfigured")
	// ErrUnavailable: the network call could not be established, after
	// retries where the provider has a retry policy.
	ErrUnavailable = errors.New("provider unavailable")
	// ErrRejected: the remote returned a non-success status.
	ErrRejected = errors.New("provider rejected request")
	// ErrBlocked: a provider-side safety filter suppressed the output.
	ErrBlocked = errors.New("response blocked by safety filter")
)

// ProviderError wraps one of the sentinel kinds with the provider name and
// the remote-supplied detail (error body, block reason, attempt count).
type ProviderError struct {
	Provider Provider
	Kind     error
	Detail   string
}

func (e *ProviderError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Provider, e.Kind, e.Detail)
}

func (e *ProviderError) Unwrap() error { return e.Kind }

func newErr(p Provider, kind error, format string, args ...interface{}) *ProviderError {
	return &ProviderError{Provider: p, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
