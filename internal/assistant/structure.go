package assistant

import (
	"regexp"
	"strings"
)

// CodeKind selects which language ExtractCode looks for.
type CodeKind string

const (
	CodeSQL    CodeKind = "sql"
	CodePython CodeKind = "python"
)

var (
	sqlCodeFenceRe    = regexp.MustCompile("(?s)```(?:sql|SQL)\n(.*?)\n```")
	pythonCodeFenceRe = regexp.MustCompile("(?s)```(?:python|Python|PY|py)\n(.*?)\n```")
	anyFenceRe        = regexp.MustCompile("(?s)```(?:\\w*)\n(.*?)\n```")
)

var sqlMarkers = []string{"select", "where", "from", "join", "filter", "create", "insert", "update", "delete"}

var pythonMarkers = []string{"def ", "import ", "from ", "for ", "if ", "class "}

// ExtractCode pulls a code block of the requested kind out of raw model
// output. Preference order: a language-tagged fence, any fence whose body
// looks like the requested language, then the whole text if it looks like
// code itself. Returns "" when nothing plausible is found.
func ExtractCode(content string, kind CodeKind) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	tagged := sqlCodeFenceRe
	if kind == CodePython {
		tagged = pythonCodeFenceRe
	}
	if m := tagged.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}

	for _, m := range anyFenceRe.FindAllStringSubmatch(content, -1) {
		body := strings.TrimSpace(m[1])
		if looksLike(body, kind) {
			return body
		}
	}

	if looksLike(content, kind) {
		return content
	}
	return ""
}

func looksLike(text string, kind CodeKind) bool {
	lower := strings.ToLower(text)
	markers := sqlMarkers
	if kind == CodePython {
		markers = pythonMarkers
	}
	for _, marker := range markers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
