package llm

import (
	"context"
	"errors"
	"time"

	"github.com/geoquery/geoquery/internal/config"
	"github.com/geoquery/geoquery/internal/observability"
	"github.com/rs/zerolog/log"
)

// Dispatcher owns one Querier per configured provider, selected by enum
// lookup. Providers with missing credentials are simply not registered;
// selecting one at request time yields ErrMisconfigured.
type Dispatcher struct {
	providers   map[Provider]Querier
	defaultProv Provider
	visionModel string
}

// NewDispatcher builds the provider table from config. Only the default
// provider is mandatory: if its credentials are absent, construction fails
// so the misconfiguration is caught at startup, not on the first request.
func NewDispatcher(cfg config.LLMConfig) (*Dispatcher, error) {
	d := &Dispatcher{
		providers:   make(map[Provider]Querier),
		visionModel: cfg.VisionModel,
	}

	// Ollama needs no credential and is always available.
	d.providers[ProviderOllama] = NewOllama(cfg.OllamaBaseURL, cfg.TextModel, time.Duration(cfg.OllamaTimeout)*time.Second)

	if q, err := NewOpenAI(cfg.OpenAIAPIKey, cfg.TextModel); err == nil {
		d.providers[ProviderOpenAI] = q
	}
	if q, err := NewOpenRouter(cfg.OpenRouterAPIKey, cfg.TextModel, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName); err == nil {
		d.providers[ProviderOpenRouter] = q
	}
	if q, err := NewAnthropic(cfg.AnthropicAPIKey, cfg.TextModel, cfg.AnthropicBaseURL); err == nil {
		d.providers[ProviderAnthropic] = q
	}
	if q, err := NewGemini(cfg.GoogleAPIKey, cfg.TextModel); err == nil {
		d.providers[ProviderGoogle] = q
	}
	if q, err := NewHuggingFace(cfg.HuggingFaceAPIKey, cfg.TextModel); err == nil {
		d.providers[ProviderHuggingFace] = q
	}

	def, ok := ParseProvider(cfg.Provider)
	if !ok {
		return nil, newErr(Provider(cfg.Provider), ErrMisconfigured, "unsupported provider")
	}
	if def == "" {
		def = ProviderOllama
	}
	if _, registered := d.providers[def]; !registered {
		return nil, newErr(def, ErrMisconfigured, "default provider has no credentials configured")
	}
	d.defaultProv = def

	log.Info().
		Int("providers", len(d.providers)).
		Str("default", string(def)).
		Msg("LLM dispatcher initialized")

	return d, nil
}

// Default returns the configured default provider.
func (d *Dispatcher) Default() Provider { return d.defaultProv }

// VisionModel returns the configured vision model identifier, which may be
// empty when the provider's own default should be used.
func (d *Dispatcher) VisionModel() string { return d.visionModel }

// Query routes the request to the named provider, or the default when
// provider is empty. Exactly one outbound call is made, except for the
// local provider's bounded retry policy.
func (d *Dispatcher) Query(ctx context.Context, provider Provider, req Request) (string, error) {
	if provider == "" {
		provider = d.defaultProv
	}
	q, ok := d.providers[provider]
	if !ok {
		if _, valid := ParseProvider(string(provider)); !valid {
			return "", newErr(provider, ErrMisconfigured, "unknown provider")
		}
		return "", newErr(provider, ErrMisconfigured, "no credentials configured")
	}

	start := time.Now()
	text, err := q.Query(ctx, req)
	observability.ObserveProviderCall(string(provider), classify(err), time.Since(start))

	if err != nil {
		log.Warn().
			Str("provider", string(provider)).
			Err(err).
			Msg("provider call failed")
		return "", err
	}
	return text, nil
}

func classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrBlocked):
		return "blocked"
	case errors.Is(err, ErrRejected):
		return "rejected"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrMisconfigured):
		return "misconfigured"
	default:
		return "error"
	}
}
