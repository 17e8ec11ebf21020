package llm

import (
	"regexp"
	"strings"

	"github.com/geoquery/geoquery/internal/observability"
)

// Result is the structured outcome of parsing raw model output.
// Success is true iff SQL or Explanation is non-empty after trimming.
type Result struct {
	SQL         string `json:"sql"`
	Explanation string `json:"explanation"`
	Success     bool   `json:"success"`
}

var (
	sqlFenceRe    = regexp.MustCompile("(?is)```sql\n(.*?)\n```")
	pythonFenceRe = regexp.MustCompile("(?is)```python\n(.*?)\n```")
)

var sqlKeywords = []string{"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "ALTER", "DROP"}

// Parse extracts a best-guess SQL statement and an explanation from raw
// model output. Deterministic: same input always yields the same Result,
// and it never fails; an unparseable response becomes Success=false with
// the original text as explanation.
//
// Heuristics, in order, first match wins:
//  1. first ```sql fenced block; explanation is the text around it
//  2. first ```python fenced block, kept whole in the SQL field with the
//     full text as explanation (legacy behavior, kept for compatibility)
//  3. lines starting with a SQL keyword; the rest becomes the explanation
//  4. nothing found: empty SQL, full text as explanation
func Parse(content string) Result {
	sql := ""
	explanation := content
	stage := "fallback"

	if m := sqlFenceRe.FindStringSubmatchIndex(content); m != nil {
		stage = "sql_fence"
		// Only the first block is used; nested fences are not supported.
		sql = strings.TrimSpace(content[m[2]:m[3]])
		pre := strings.TrimSpace(content[:m[0]])
		post := strings.TrimSpace(content[m[1]:])
		switch {
		case pre != "" && post != "":
			explanation = pre + "\n\n" + post
		case pre != "":
			explanation = pre
		case post != "":
			explanation = post
		default:
			explanation = ""
		}
	} else if m := pythonFenceRe.FindStringSubmatch(content); m != nil {
		stage = "python_fence"
		sql = strings.TrimSpace(m[1])
		explanation = content
	} else {
		lines := strings.Split(content, "\n")
		var candidates []string
		isCandidate := make(map[string]bool)
		for _, line := range lines {
			if startsWithSQLKeyword(line) {
				candidates = append(candidates, line)
				isCandidate[line] = true
			}
		}
		if len(candidates) > 0 {
			stage = "keyword_lines"
			sql = strings.Join(candidates, "\n")
			var remaining []string
			for _, line := range lines {
				if !isCandidate[line] {
					remaining = append(remaining, line)
				}
			}
			explanation = strings.Join(remaining, "\n")
		}
	}

	sql = strings.TrimSpace(sql)
	explanation = strings.TrimSpace(explanation)
	if explanation == "" && strings.TrimSpace(content) != "" {
		explanation = strings.TrimSpace(content)
	}
	observability.ObserveParseResult(stage)

	return Result{
		SQL:         sql,
		Explanation: explanation,
		Success:     sql != "" || explanation != "",
	}
}

func startsWithSQLKeyword(line string) bool {
	upper := strings.ToUpper(strings.TrimSpace(line))
	for _, kw := range sqlKeywords {
		if strings.HasPrefix(upper, kw) {
			return true
		}
	}
	return false
}
