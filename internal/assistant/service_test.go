package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/geoquery/geoquery/internal/executor"
	"github.com/geoquery/geoquery/internal/llm"
	"github.com/geoquery/geoquery/internal/schema"
)

// fakeDispatch records requests and replays canned responses in order.
type fakeDispatch struct {
	requests  []llm.Request
	providers []llm.Provider
	responses []string
	errs      []error
}

func (f *fakeDispatch) Query(ctx context.Context, provider llm.Provider, req llm.Request) (string, error) {
	i := len(f.requests)
	f.requests = append(f.requests, req)
	f.providers = append(f.providers, provider)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	resp := ""
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	return resp, err
}

func (f *fakeDispatch) Default() llm.Provider { return llm.ProviderOllama }
func (f *fakeDispatch) VisionModel() string   { return "llava" }

func testSchemas() *schema.Service {
	store := executor.NewMemoryStore()
	store.AddLayer(&executor.Layer{
		Name:         "buildings",
		GeometryType: "Polygon",
		Fields:       []string{"id", "height", "geom"},
		Rows: []map[string]interface{}{
			{"id": 1, "height": 12, "geom": nil},
		},
	})
	return schema.NewService(store)
}

func TestGenerateSQLBuildsSystemPrompt(t *testing.T) {
	dispatch := &fakeDispatch{responses: []string{
		"```sql\nSELECT \"id\" FROM \"buildings\"\n```\nLists building ids.",
	}}
	a := New(dispatch, testSchemas(), nil)

	res, err := a.GenerateSQL(context.Background(), "list building ids", llm.ProviderOllama, "")
	if err != nil {
		t.Fatalf("GenerateSQL() error = %v", err)
	}
	if res.SQL != `SELECT "id" FROM "buildings"` {
		t.Errorf("SQL = %q", res.SQL)
	}
	if res.Explanation != "Lists building ids." {
		t.Errorf("Explanation = %q", res.Explanation)
	}

	system := dispatch.requests[0].SystemPrompt
	for _, want := range []string{
		"buildings: id, height, geom",
		"Database Type: memory",
		"double quotes",
		"AVAILABLE TABLES AND COLUMNS",
	} {
		if !strings.Contains(system, want) {
			t.Errorf("system prompt missing %q:\n%s", want, system)
		}
	}
	if dispatch.requests[0].Prompt != "list building ids" {
		t.Errorf("Prompt = %q", dispatch.requests[0].Prompt)
	}
}

func TestGenerateSQLPropagatesProviderError(t *testing.T) {
	dispatch := &fakeDispatch{errs: []error{errors.New("boom")}}
	a := New(dispatch, testSchemas(), nil)

	if _, err := a.GenerateSQL(context.Background(), "x", llm.ProviderOllama, ""); err == nil {
		t.Error("expected error")
	}
}

func TestFixSQLPromptCarriesErrorAndCatalog(t *testing.T) {
	dispatch := &fakeDispatch{responses: []string{
		"```sql\nSELECT \"height\" FROM \"buildings\"\n```\nQuoted the column.",
	}}
	a := New(dispatch, testSchemas(), nil)

	res, err := a.FixSQL(context.Background(), `SELECT height FROM buildings`, `column "height" does not exist`, llm.ProviderOllama, "")
	if err != nil {
		t.Fatalf("FixSQL() error = %v", err)
	}
	if res.SQL != `SELECT "height" FROM "buildings"` {
		t.Errorf("SQL = %q", res.SQL)
	}

	prompt := dispatch.requests[0].Prompt
	for _, want := range []string{
		"Fix this SQL query that produced an error:",
		"SELECT height FROM buildings",
		`column "height" does not exist`,
		"buildings: id, height, geom",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("fix prompt missing %q:\n%s", want, prompt)
		}
	}
	if !strings.Contains(dispatch.requests[0].SystemPrompt, "geospatial databases") {
		t.Errorf("system prompt = %q", dispatch.requests[0].SystemPrompt)
	}
}

func TestProviderOverride(t *testing.T) {
	a := New(&fakeDispatch{}, testSchemas(), nil)

	p, err := a.Provider(nil)
	if err != nil || p != llm.ProviderOllama {
		t.Errorf("Provider(nil) = %q, %v", p, err)
	}

	name := "Anthropic"
	p, err = a.Provider(&name)
	if err != nil || p != llm.ProviderAnthropic {
		t.Errorf("Provider(anthropic) = %q, %v", p, err)
	}

	bad := "skynet"
	if _, err := a.Provider(&bad); err == nil {
		t.Error("expected error for unknown provider")
	}
}
