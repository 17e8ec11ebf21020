// Package assistant orchestrates natural-language to SQL workflows: prompt
// assembly from the live schema, provider dispatch, response parsing, and
// the image-to-code pipeline.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/geoquery/geoquery/internal/executor"
	"github.com/geoquery/geoquery/internal/llm"
	"github.com/geoquery/geoquery/internal/schema"
	"github.com/rs/zerolog/log"
)

// Dispatch is the slice of the LLM dispatcher the assistant needs.
type Dispatch interface {
	Query(ctx context.Context, provider llm.Provider, req llm.Request) (string, error)
	Default() llm.Provider
	VisionModel() string
}

// Assistant generates, repairs, and explains geospatial SQL.
type Assistant struct {
	dispatch Dispatch
	schemas  *schema.Service
	vision   Describer // nil when no dedicated vision service is configured
}

func New(dispatch Dispatch, schemas *schema.Service, vision Describer) *Assistant {
	return &Assistant{dispatch: dispatch, schemas: schemas, vision: vision}
}

// Provider resolves an optional request-level override to a provider enum.
func (a *Assistant) Provider(override *string) (llm.Provider, error) {
	if override == nil || *override == "" {
		return a.dispatch.Default(), nil
	}
	p, ok := llm.ParseProvider(strings.ToLower(*override))
	if !ok {
		return "", fmt.Errorf("unsupported provider %q", *override)
	}
	return p, nil
}

// GenerateSQL turns a natural-language prompt into parsed SQL plus an
// explanation, grounding the model on the current schema catalog.
func (a *Assistant) GenerateSQL(ctx context.Context, prompt string, provider llm.Provider, model string) (llm.Result, error) {
	cat, err := a.schemas.Get(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("schema unavailable, generating without catalog")
		cat = &executor.Catalog{}
	}

	content, err := a.dispatch.Query(ctx, provider, llm.Request{
		Prompt:       prompt,
		SystemPrompt: buildSQLSystemPrompt(cat),
		Model:        model,
	})
	if err != nil {
		return llm.Result{}, err
	}
	return llm.Parse(content), nil
}

// FixSQL asks the model to repair a statement that failed, feeding it the
// error text and the catalog so it can correct names and quoting.
func (a *Assistant) FixSQL(ctx context.Context, sqlText, errText string, provider llm.Provider, model string) (llm.Result, error) {
	cat, err := a.schemas.Get(ctx)
	if err != nil {
		cat = &executor.Catalog{}
	}

	var fields strings.Builder
	for _, table := range cat.Tables {
		fmt.Fprintf(&fields, "  - %s: %s\n", table, strings.Join(cat.TableFields[table], ", "))
	}

	prompt := fmt.Sprintf(
		"Fix this SQL query that produced an error:\n\n"+
			"SQL:\n```sql\n%s\n```\n\nError:\n%s\n\n"+
			"Context:\nDatabase: %s\n"+
			"Tables: %s\n"+
			"All Layer Fields:\n%s",
		sqlText, errText, orUnknown(cat.DBType), strings.Join(cat.Tables, ", "), fields.String())

	content, err := a.dispatch.Query(ctx, provider, llm.Request{
		Prompt: prompt,
		SystemPrompt: "You are a SQL expert specializing in geospatial databases (PostGIS, SpatiaLite). " +
			"Fix SQL errors and explain the solution. IMPORTANT: Wrap ALL column names and table names in double quotes.",
		Model: model,
	})
	if err != nil {
		return llm.Result{}, err
	}
	return llm.Parse(content), nil
}

// buildSQLSystemPrompt renders the catalog into generation instructions.
// Identifier quoting is drilled in repeatedly: unquoted mixed-case names
// are the most common cause of broken generated SQL.
func buildSQLSystemPrompt(cat *executor.Catalog) string {
	var tables strings.Builder
	for _, table := range cat.Tables {
		fmt.Fprintf(&tables, "%s: %s\n", table, strings.Join(cat.TableFields[table], ", "))
	}

	crs := cat.CRS
	if crs == "" {
		crs = "EPSG:4326"
	}

	return "You are an expert in geospatial SQL (PostGIS, SpatiaLite). Your goal is to generate precise, correct, and simple SQL queries.\n" +
		"Database Type: " + orUnknown(cat.DBType) + "\n" +
		"CRS: " + crs + "\n" +
		"--- AVAILABLE TABLES AND COLUMNS ---\n" +
		tables.String() +
		"--- INSTRUCTIONS ---\n" +
		"1. CRITICAL: Wrap ALL column names AND ALL table names in double quotes. Examples:\n" +
		"   - SELECT \"id\", \"name\" FROM \"cities\" WHERE \"population\" > 1000\n" +
		"   - SELECT * FROM \"my_table\" WHERE \"geom\" && ST_SetSRID(...)\n" +
		"2. Use ONLY table and column names exactly as listed in AVAILABLE TABLES AND COLUMNS.\n" +
		"3. Generate the SIMPLEST and most DIRECT SQL query without comments or placeholders.\n" +
		"4. Provide SQL in a ```sql ... ``` block, followed by a clear explanation.\n" +
		"5. Self-review your SQL to ensure proper quoting of all identifiers before output.\n"
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
