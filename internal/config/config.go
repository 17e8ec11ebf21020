package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// Server
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
	APIPrefix   string `json:"api_prefix"`
	LogLevel    string `json:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins"`

	// Auth
	APIKeyHeader string   `json:"api_key_header"`
	APIKeys      []string `json:"api_keys"`
	EnableAuth   bool     `json:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute"`

	// LLM providers
	LLM LLMConfig `json:"llm"`

	// Vision collaborator (Azure Computer Vision compatible)
	VisionEndpoint string `json:"vision_endpoint"`
	VisionKey      string `json:"vision_key"`

	// Data source the generated SQL runs against
	DataSource DataSourceConfig `json:"data_source"`

	// Security
	AllowWriteSQL      bool `json:"allow_write_sql"`
	EnableAuditLogging bool `json:"enable_audit_logging"`
	MaxPromptLength    int  `json:"max_prompt_length"`

	// Request handling
	GenerateTimeout int `json:"generate_timeout"` // seconds
}

// LLMConfig holds every provider's credentials and default models. It is
// built once at startup and injected; components never reload it themselves.
type LLMConfig struct {
	Provider    string `json:"provider"` // default provider
	TextModel   string `json:"text_model"`
	VisionModel string `json:"vision_model"`

	OllamaBaseURL string `json:"ollama_base_url"`
	OllamaTimeout int    `json:"ollama_timeout"` // seconds

	OpenAIAPIKey string `json:"openai_api_key"`

	OpenRouterAPIKey  string `json:"openrouter_api_key"`
	OpenRouterSiteURL string `json:"openrouter_site_url"`
	OpenRouterAppName string `json:"openrouter_app_name"`

	AnthropicAPIKey  string `json:"anthropic_api_key"`
	AnthropicBaseURL string `json:"anthropic_base_url"`

	GoogleAPIKey string `json:"google_api_key"`

	HuggingFaceAPIKey string `json:"huggingface_api_key"`
}

// DataSourceConfig declares which storage backend executes generated SQL.
type DataSourceConfig struct {
	Kind           string `json:"kind"` // "postgres", "geopackage", "memory"
	PostgresDSN    string `json:"postgres_dsn"`
	GeoPackagePath string `json:"geopackage_path"`
	MaxOpenConns   int    `json:"max_open_conns"`
	MaxIdleConns   int    `json:"max_idle_conns"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:               DefaultHost,
		Port:               DefaultPort,
		Environment:        DefaultEnvironment,
		APIPrefix:          DefaultAPIPrefix,
		LogLevel:           DefaultLogLevel,
		CORSOrigins:        DefaultCORSOrigins,
		APIKeyHeader:       "X-API-Key",
		EnableAuth:         true,
		RateLimitPerMinute: DefaultRateLimitPerMinute,
		EnableAuditLogging: true,
		MaxPromptLength:    DefaultMaxPromptLength,
		GenerateTimeout:    DefaultGenerateTimeout,
		LLM: LLMConfig{
			Provider:          DefaultProvider,
			OllamaBaseURL:     DefaultOllamaBaseURL,
			OllamaTimeout:     DefaultOllamaTimeout,
			OpenRouterSiteURL: DefaultOpenRouterSiteURL,
			OpenRouterAppName: DefaultOpenRouterAppName,
		},
		DataSource: DataSourceConfig{
			Kind:         DefaultDataSourceKind,
			MaxOpenConns: DefaultMaxOpenConns,
			MaxIdleConns: DefaultMaxIdleConns,
		},
	}

	// Load from JSON config file if specified
	if path := getEnv("GEOQUERY_CONFIG", ""); path != "" {
		if err := loadJSON(path, cfg); err != nil {
			return nil, err
		}
	}

	// Environment overrides
	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DataSource.Kind {
	case "postgres", "geopackage", "memory":
	default:
		return fmt.Errorf("unknown data source kind %q (expected postgres, geopackage, or memory)", c.DataSource.Kind)
	}
	if c.DataSource.Kind == "postgres" && c.DataSource.PostgresDSN == "" {
		return fmt.Errorf("data source kind is postgres but postgres_dsn is empty")
	}
	if c.DataSource.Kind == "geopackage" && c.DataSource.GeoPackagePath == "" {
		return fmt.Errorf("data source kind is geopackage but geopackage_path is empty")
	}
	return nil
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("GEOQUERY_HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("GEOQUERY_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("GEOQUERY_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("GEOQUERY_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("GEOQUERY_API_KEYS", ""); v != "" {
		cfg.APIKeys = strings.Split(v, ",")
	}
	if v := getEnv("ENABLE_AUTH", ""); v != "" {
		cfg.EnableAuth = v == "true" || v == "1"
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}
	if v := getEnv("GEOQUERY_ALLOW_WRITE_SQL", ""); v != "" {
		cfg.AllowWriteSQL = v == "true" || v == "1"
	}

	// Providers
	if v := getEnv("LLM_PROVIDER", ""); v != "" {
		cfg.LLM.Provider = strings.ToLower(v)
	}
	if v := getEnv("LLM_MODEL_TEXT", ""); v != "" {
		cfg.LLM.TextModel = v
	}
	if v := getEnv("LLM_MODEL_VISION", ""); v != "" {
		cfg.LLM.VisionModel = v
	}
	if v := getEnv("OLLAMA_BASE_URL", ""); v != "" {
		cfg.LLM.OllamaBaseURL = v
	}
	if v := getEnv("OLLAMA_TIMEOUT", ""); v != "" {
		if t, err := strconv.Atoi(v); err == nil {
			cfg.LLM.OllamaTimeout = t
		}
	}
	if v := getEnv("OPENAI_API_KEY", ""); v != "" {
		cfg.LLM.OpenAIAPIKey = v
	}
	if v := getEnv("OPENROUTER_API_KEY", ""); v != "" {
		cfg.LLM.OpenRouterAPIKey = v
	}
	if v := getEnv("OPENROUTER_SITE_URL", ""); v != "" {
		cfg.LLM.OpenRouterSiteURL = v
	}
	if v := getEnv("OPENROUTER_APP_NAME", ""); v != "" {
		cfg.LLM.OpenRouterAppName = v
	}
	if v := getEnv("ANTHROPIC_API_KEY", ""); v != "" {
		cfg.LLM.AnthropicAPIKey = v
	}
	if v := getEnv("ANTHROPIC_BASE_URL", ""); v != "" {
		cfg.LLM.AnthropicBaseURL = v
	}
	if v := getEnv("GOOGLE_API_KEY", ""); v != "" {
		cfg.LLM.GoogleAPIKey = v
	}
	if v := getEnv("HF_API_KEY", ""); v != "" {
		cfg.LLM.HuggingFaceAPIKey = v
	}

	// Vision
	if v := getEnv("AZURE_VISION_ENDPOINT", ""); v != "" {
		cfg.VisionEndpoint = strings.TrimSpace(v)
	}
	if v := getEnv("AZURE_VISION_SUBSCRIPTION_KEY", ""); v != "" {
		cfg.VisionKey = strings.TrimSpace(v)
	}

	// Data source
	if v := getEnv("GEOQUERY_DATA_SOURCE", ""); v != "" {
		cfg.DataSource.Kind = strings.ToLower(v)
	}
	if v := getEnv("GEOQUERY_POSTGRES_DSN", ""); v != "" {
		cfg.DataSource.PostgresDSN = v
	}
	if v := getEnv("GEOQUERY_GEOPACKAGE_PATH", ""); v != "" {
		cfg.DataSource.GeoPackagePath = v
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
