package security

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog/log"
)

// AuditLogger logs security-relevant events with hashed identifiers
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// LogExecution records a SQL execution event
func (a *AuditLogger) LogExecution(
	sql, apiKey, source string,
	executionTimeMs int64,
	rowCount int,
	success bool,
	errMsg string,
) {
	if !a.enabled {
		return
	}

	evt := log.Info().
		Str("event", "execution_audit").
		Str("sql_hash", hashStr(sql)[:16]).
		Str("api_key_hash", hashStr(apiKey)[:16]).
		Str("source", source).
		Int64("execution_time_ms", executionTimeMs).
		Int("row_count", rowCount).
		Bool("success", success)

	if errMsg != "" {
		evt = evt.Str("error", errMsg)
	}
	evt.Msg("audit")
}

// LogGeneration records a natural-language generation event
func (a *AuditLogger) LogGeneration(
	prompt, apiKey, provider, generatedSQL string,
	validationPassed bool,
	executionTimeMs int64,
) {
	if !a.enabled {
		return
	}
	sqlHash := ""
	if generatedSQL != "" {
		sqlHash = hashStr(generatedSQL)[:16]
	}

	log.Info().
		Str("event", "generation_audit").
		Str("prompt_hash", hashStr(prompt)[:16]).
		Str("api_key_hash", hashStr(apiKey)[:16]).
		Str("provider", provider).
		Str("sql_hash", sqlHash).
		Bool("validation_passed", validationPassed).
		Int64("execution_time_ms", executionTimeMs).
		Msg("generation audit")
}

func hashStr(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
