package security

import (
	"regexp"
	"strings"
)

// sqlDangerousPatterns flags stacked statements, injection probes, and
// file-system escapes. Checked regardless of the write policy.
var sqlDangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i);\s*DROP\s+`),
	regexp.MustCompile(`(?i);\s*DELETE\s+`),
	regexp.MustCompile(`(?i);\s*INSERT\s+`),
	regexp.MustCompile(`(?i);\s*UPDATE\s+`),
	regexp.MustCompile(`(?i);\s*ALTER\s+`),
	regexp.MustCompile(`(?i);\s*CREATE\s+`),
	regexp.MustCompile(`(?i);\s*TRUNCATE\s+`),
	regexp.MustCompile(`(?i);\s*EXEC\s*\(?`),
	regexp.MustCompile(`(?i);\s*EXECUTE\s+`),
	regexp.MustCompile(`(?i)\bUNION\s+SELECT\b`), // UNION ALL SELECT is allowed; UNION SELECT is injection
	regexp.MustCompile(`(?i)\bINTO\s+OUTFILE\b`),
	regexp.MustCompile(`(?i)\bINTO\s+DUMPFILE\b`),
	regexp.MustCompile(`(?i)\bLOAD\s+DATA\b`),
	regexp.MustCompile(`(?i)\bLOAD_FILE\s*\(`),
	regexp.MustCompile(`(?i)\bBENCHMARK\s*\(`),
	regexp.MustCompile(`(?i)\bSLEEP\s*\(`),
	regexp.MustCompile(`(?i)\bWAITFOR\s+DELAY\b`),
	regexp.MustCompile(`'.*--`),  // comment injection after string literal
	regexp.MustCompile(`;\s*--`), // statement terminator + comment
	regexp.MustCompile(`/\*.*?\*/`),
	regexp.MustCompile(`(?i)\bor\s+1\s*=\s*1\b`),
	regexp.MustCompile(`(?i)\band\s+1\s*=\s*1\b`),
	regexp.MustCompile(`(?i)\bor\s+'1'\s*=\s*'1'`),
	regexp.MustCompile(`(?i)\band\s+'1'\s*=\s*'1'`),
}

var writeKeywords = []string{"INSERT", "UPDATE", "DELETE", "CREATE", "ALTER", "DROP", "TRUNCATE"}

// SQLValidator validates generated and user-supplied SQL before execution.
// Writes are rejected unless the server was configured to allow them;
// injection patterns are rejected always.
type SQLValidator struct {
	allowWrites bool
}

func NewSQLValidator(allowWrites bool) *SQLValidator {
	return &SQLValidator{allowWrites: allowWrites}
}

// Validate returns an error string if SQL is invalid, or empty string if OK
func (v *SQLValidator) Validate(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return "SQL cannot be empty"
	}
	upperSQL := strings.ToUpper(trimmed)

	if !strings.HasPrefix(upperSQL, "SELECT") && !strings.HasPrefix(upperSQL, "WITH") {
		if !v.allowWrites {
			return "only SELECT queries are allowed"
		}
		allowed := false
		for _, kw := range writeKeywords {
			if strings.HasPrefix(upperSQL, kw) {
				allowed = true
				break
			}
		}
		if !allowed {
			return "statement type not recognized"
		}
	}

	for _, pattern := range sqlDangerousPatterns {
		if pattern.MatchString(sql) {
			return "SQL injection pattern detected: " + pattern.String()
		}
	}

	return ""
}
