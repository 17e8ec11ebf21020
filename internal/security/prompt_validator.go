package security

import (
	"fmt"
	"regexp"
	"strings"
)

const DefaultMaxPromptLength = 2000

// dangerousPatterns covers prompt injection and command execution attempts.
var dangerousPatterns = []*regexp.Regexp{
	// Command execution
	regexp.MustCompile(`(?i)\brm\s+-`),
	regexp.MustCompile(`(?i)\brm\s+/`),
	regexp.MustCompile(`(?i)\bcp\s+.*\s+/etc`),
	regexp.MustCompile(`(?i)\bmv\s+.*\s+/etc`),
	regexp.MustCompile(`(?i)\bcurl\s+`),
	regexp.MustCompile(`(?i)\bwget\s+`),
	regexp.MustCompile(`(?i)\bnc\s+`),
	regexp.MustCompile(`(?i)\bbash\s+-`),
	regexp.MustCompile(`(?i)\bsh\s+-`),
	regexp.MustCompile(`(?i)\bsudo\s+`),
	regexp.MustCompile(`(?i)\bsu\s+`),

	// File operations / path traversal
	regexp.MustCompile(`\.\.\/`),
	regexp.MustCompile(`/etc/passwd`),
	regexp.MustCompile(`/etc/shadow`),
	regexp.MustCompile(`/proc/`),
	regexp.MustCompile(`/sys/`),
	regexp.MustCompile(`\.env\s`),
	regexp.MustCompile(`\.env$`),
	regexp.MustCompile(`id_rsa`),
	regexp.MustCompile(`\.ssh/`),
	regexp.MustCompile(`>\s*/`),
	regexp.MustCompile(`>>\s*/`),

	// Code execution
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)exec\s*\(`),
	regexp.MustCompile(`(?i)system\s*\(`),
	regexp.MustCompile(`(?i)__import__\s*\(`),
	regexp.MustCompile(`(?i)subprocess\s*\(`),
	regexp.MustCompile(`(?i)os\.system`),
	regexp.MustCompile(`(?i)popen`),

	// Prompt injection
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)override\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)new\s+context\s*:`),
	regexp.MustCompile(`(?i)change\s+context\s*:`),
	regexp.MustCompile(`(?i)instead\s+of\s+the\s+above`),
}

var suspiciousIndicators = []string{
	"create file", "eval", "exec",
	"import os", "import sys", "subprocess", "__import__",
}

// domainKeywords: a prompt must mention at least one query or GIS term.
var domainKeywords = []string{
	// Query vocabulary
	"data", "table", "query", "show", "list", "get", "find",
	"select", "count", "sum", "aggregate", "average", "total",
	"compare", "how many", "how much", "which", "what", "where",
	"when", "who", "within", "near", "nearest", "closest",
	// GIS vocabulary
	"layer", "feature", "geometry", "polygon", "point", "line",
	"buffer", "intersect", "contain", "distance", "area", "length",
	"spatial", "map", "crs", "projection", "coordinate", "srid",
	"parcel", "road", "building", "river", "boundary", "zone",
	"raster", "vector", "attribute", "geom", "centroid", "overlap",
}

// PromptValidator validates prompts for injection and dangerous content
type PromptValidator struct {
	maxLength int
}

func NewPromptValidator(maxLength int) *PromptValidator {
	if maxLength <= 0 {
		maxLength = DefaultMaxPromptLength
	}
	return &PromptValidator{maxLength: maxLength}
}

// ValidationResult contains validation outcome
type ValidationResult struct {
	Valid   bool
	Message string
}

// Validate checks a prompt for dangerous patterns
func (v *PromptValidator) Validate(prompt string) ValidationResult {
	if len(prompt) > v.maxLength {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("prompt too long: %d chars (max %d)", len(prompt), v.maxLength),
		}
	}

	if strings.TrimSpace(prompt) == "" {
		return ValidationResult{Valid: false, Message: "prompt cannot be empty"}
	}

	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(prompt) {
			return ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("dangerous pattern detected: %s", pattern.String()),
			}
		}
	}

	lower := strings.ToLower(prompt)
	for _, indicator := range suspiciousIndicators {
		if strings.Contains(lower, indicator) {
			return ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("suspicious instruction indicator detected: %q", indicator),
			}
		}
	}

	hasDomainKW := false
	for _, kw := range domainKeywords {
		if strings.Contains(lower, kw) {
			hasDomainKW = true
			break
		}
	}
	if !hasDomainKW {
		return ValidationResult{
			Valid:   false,
			Message: "prompt must contain a query or GIS keyword (layer, select, buffer, etc.)",
		}
	}

	return ValidationResult{Valid: true, Message: "ok"}
}
