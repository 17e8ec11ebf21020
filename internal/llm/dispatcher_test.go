package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geoquery/geoquery/internal/config"
)

func baseLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		Provider:      "ollama",
		OllamaBaseURL: "http://localhost:11434",
		OllamaTimeout: 120,
	}
}

func TestNewDispatcherRegistersOnlyCredentialedProviders(t *testing.T) {
	cfg := baseLLMConfig()
	cfg.OpenAIAPIKey = "sk-test"

	d, err := NewDispatcher(cfg)
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}

	if _, ok := d.providers[ProviderOllama]; !ok {
		t.Error("ollama should always be registered")
	}
	if _, ok := d.providers[ProviderOpenAI]; !ok {
		t.Error("openai should be registered when its key is set")
	}
	if _, ok := d.providers[ProviderAnthropic]; ok {
		t.Error("anthropic should not be registered without a key")
	}
}

func TestNewDispatcherFailsWhenDefaultMissingCredentials(t *testing.T) {
	cfg := baseLLMConfig()
	cfg.Provider = "anthropic" // no key configured

	if _, err := NewDispatcher(cfg); !errors.Is(err, ErrMisconfigured) {
		t.Errorf("error = %v, want ErrMisconfigured", err)
	}
}

func TestNewDispatcherRejectsUnknownProvider(t *testing.T) {
	cfg := baseLLMConfig()
	cfg.Provider = "skynet"

	if _, err := NewDispatcher(cfg); !errors.Is(err, ErrMisconfigured) {
		t.Errorf("error = %v, want ErrMisconfigured", err)
	}
}

func TestDispatcherQueryUnregisteredProvider(t *testing.T) {
	d, err := NewDispatcher(baseLLMConfig())
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}

	_, err = d.Query(context.Background(), ProviderGoogle, Request{Prompt: "hi"})
	if !errors.Is(err, ErrMisconfigured) {
		t.Errorf("error = %v, want ErrMisconfigured", err)
	}

	_, err = d.Query(context.Background(), Provider("skynet"), Request{Prompt: "hi"})
	if !errors.Is(err, ErrMisconfigured) {
		t.Errorf("error = %v, want ErrMisconfigured for unknown name", err)
	}
}

func TestDispatcherRoutesToNamedProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"generated_text": "SELECT 1"}]`))
	}))
	defer srv.Close()

	d, err := NewDispatcher(baseLLMConfig())
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}
	hf, _ := NewHuggingFace("hf-key", "zephyr")
	hf.baseURL = srv.URL
	d.providers[ProviderHuggingFace] = hf

	got, err := d.Query(context.Background(), ProviderHuggingFace, Request{Prompt: "count"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got != "SELECT 1" {
		t.Errorf("Query() = %q, want %q", got, "SELECT 1")
	}
}

func TestDispatcherEmptyProviderUsesDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": "SELECT 2"}`))
	}))
	defer srv.Close()

	cfg := baseLLMConfig()
	cfg.OllamaBaseURL = srv.URL

	d, err := NewDispatcher(cfg)
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}
	if d.Default() != ProviderOllama {
		t.Fatalf("Default() = %q, want ollama", d.Default())
	}

	got, err := d.Query(context.Background(), "", Request{Prompt: "count"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got != "SELECT 2" {
		t.Errorf("Query() = %q, want %q", got, "SELECT 2")
	}
}
