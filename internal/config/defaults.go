package config

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultRateLimitPerMinute = 60

	DefaultProvider      = "ollama"
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultOllamaTimeout = 120 // seconds

	DefaultOpenRouterSiteURL = "https://geoquery.local"
	DefaultOpenRouterAppName = "GeoQuery"

	DefaultDataSourceKind = "memory"
	DefaultMaxOpenConns   = 8
	DefaultMaxIdleConns   = 2

	DefaultMaxPromptLength = 2000
	DefaultGenerateTimeout = 300 // seconds
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
}
