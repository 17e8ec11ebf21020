package llm_test

import (
	"testing"

	"github.com/geoquery/geoquery/internal/llm"
)

func TestParseSQLFence(t *testing.T) {
	raw := "```sql\nSELECT * FROM \"buildings\" b JOIN \"parks\" p ON ST_DWithin(b.geom, p.geom, 500)\n```\nThis joins using a spatial distance filter."

	got := llm.Parse(raw)
	wantSQL := `SELECT * FROM "buildings" b JOIN "parks" p ON ST_DWithin(b.geom, p.geom, 500)`
	if got.SQL != wantSQL {
		t.Errorf("SQL = %q, want %q", got.SQL, wantSQL)
	}
	if got.Explanation != "This joins using a spatial distance filter." {
		t.Errorf("Explanation = %q", got.Explanation)
	}
	if !got.Success {
		t.Error("Success = false, want true")
	}
}

func TestParseSQLFenceSurroundingText(t *testing.T) {
	raw := "Here is the query:\n```sql\nSELECT name FROM cities\n```\nIt lists every city."

	got := llm.Parse(raw)
	if got.SQL != "SELECT name FROM cities" {
		t.Errorf("SQL = %q", got.SQL)
	}
	if got.Explanation != "Here is the query:\n\nIt lists every city." {
		t.Errorf("Explanation = %q", got.Explanation)
	}
}

func TestParseFirstFenceWins(t *testing.T) {
	raw := "```sql\nSELECT 1\n```\nmiddle\n```sql\nSELECT 2\n```"

	got := llm.Parse(raw)
	if got.SQL != "SELECT 1" {
		t.Errorf("SQL = %q, want only the first fenced block", got.SQL)
	}
}

func TestParseKeywordLines(t *testing.T) {
	raw := "You could try this:\nSELECT id, name FROM roads\nWhich returns the road names."

	got := llm.Parse(raw)
	if got.SQL != "SELECT id, name FROM roads" {
		t.Errorf("SQL = %q", got.SQL)
	}
	if got.Explanation != "You could try this:\nWhich returns the road names." {
		t.Errorf("Explanation = %q", got.Explanation)
	}
	if !got.Success {
		t.Error("Success = false, want true")
	}
}

func TestParseKeywordCaseInsensitive(t *testing.T) {
	raw := "select count(*) from parcels"

	got := llm.Parse(raw)
	if got.SQL != "select count(*) from parcels" {
		t.Errorf("SQL = %q", got.SQL)
	}
}

func TestParseNoMatch(t *testing.T) {
	raw := "  I could not determine a query for that request.  "

	got := llm.Parse(raw)
	if got.SQL != "" {
		t.Errorf("SQL = %q, want empty", got.SQL)
	}
	if got.Explanation != "I could not determine a query for that request." {
		t.Errorf("Explanation = %q, want trimmed original", got.Explanation)
	}
	if !got.Success {
		t.Error("Success = false; an explanation-only response still counts")
	}
}

func TestParseEmpty(t *testing.T) {
	got := llm.Parse("")
	if got.SQL != "" || got.Explanation != "" {
		t.Errorf("got %+v, want empty fields", got)
	}
	if got.Success {
		t.Error("Success = true, want false for empty input")
	}
}

func TestParseWhitespaceOnly(t *testing.T) {
	got := llm.Parse("   \n\t  ")
	if got.Success {
		t.Errorf("Success = true for whitespace-only input: %+v", got)
	}
}

func TestParsePythonFenceFallback(t *testing.T) {
	raw := "```python\nlayer = iface.activeLayer()\n```\nUse the active layer."

	got := llm.Parse(raw)
	if got.SQL != "layer = iface.activeLayer()" {
		t.Errorf("SQL = %q", got.SQL)
	}
	if got.Explanation != raw {
		t.Errorf("Explanation = %q, want full text for python fences", got.Explanation)
	}
}

func TestParseIdempotent(t *testing.T) {
	inputs := []string{
		"```sql\nSELECT 1\n```",
		"SELECT a FROM b\nexplanatory text",
		"no query here",
		"",
	}
	for _, raw := range inputs {
		first := llm.Parse(raw)
		second := llm.Parse(raw)
		if first != second {
			t.Errorf("Parse(%q) not idempotent: %+v vs %+v", raw, first, second)
		}
	}
}
