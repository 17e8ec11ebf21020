package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/geoquery/geoquery/internal/executor"
	"github.com/geoquery/geoquery/internal/llm"
)

const maxSuggestions = 5

const defaultSuggestionPrompt = "Given the current project context, suggest 5 intelligent and practical geospatial operations. " +
	"Focus on general project improvements, common geospatial analyses, or data management tasks. " +
	"For each suggestion, provide a short title, a brief explanation, and relevant SQL code examples."

// Numbered-list answers separate items with a blank line, optionally
// followed by "N. " on the next item.
var suggestionSplitRe = regexp.MustCompile(`\n\n(?:\d+\.\s)?`)

// Suggestions asks the model for analysis ideas grounded on the current
// catalog. An empty prompt uses the default five-suggestion request and
// splits the answer into individual items; a custom prompt is answered
// as a single block.
func (a *Assistant) Suggestions(ctx context.Context, prompt string, provider llm.Provider, model string) ([]string, error) {
	useDefault := strings.TrimSpace(prompt) == ""
	if useDefault {
		prompt = defaultSuggestionPrompt
	}

	content, err := a.dispatch.Query(ctx, provider, llm.Request{
		Prompt:       prompt,
		SystemPrompt: a.buildSuggestionSystemPrompt(ctx),
		Model:        model,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return []string{"AI did not return any suggestions."}, nil
	}

	if !useDefault {
		return []string{content}, nil
	}

	parts := suggestionSplitRe.Split(content, -1)
	suggestions := make([]string, 0, maxSuggestions)
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			suggestions = append(suggestions, s)
			if len(suggestions) == maxSuggestions {
				break
			}
		}
	}
	if len(suggestions) == 0 {
		return []string{content}, nil
	}
	return suggestions, nil
}

func (a *Assistant) buildSuggestionSystemPrompt(ctx context.Context) string {
	parts := []string{
		"You are an expert GIS analyst. Provide insightful and actionable suggestions.",
	}

	cat, err := a.schemas.Get(ctx)
	if err == nil {
		parts = append(parts,
			"Current Project CRS: "+orUnknown(cat.CRS),
			"Database Type: "+orUnknown(cat.DBType))

		if len(cat.Layers) > 0 {
			var totalFeatures int64
			for _, layer := range cat.Layers {
				totalFeatures += layer.FeatureCount
			}
			parts = append(parts, fmt.Sprintf(
				"Project Summary: Total Layers=%d, Total Features=%d",
				len(cat.Layers), totalFeatures))
		}

		if active := findLayer(cat, cat.ActiveLayer); active != nil {
			quoted := make([]string, len(active.Fields))
			for i, f := range active.Fields {
				quoted[i] = `"` + f + `"`
			}
			parts = append(parts,
				"Active Layer for Analysis: "+active.Name,
				"Geometry Type: "+orUnknown(active.GeometryType),
				fmt.Sprintf("Feature Count: %d", active.FeatureCount),
				"Available Fields: "+strings.Join(quoted, ", "))
		}
	}

	return strings.Join(parts, "\n") +
		"\n\nIMPORTANT: Use column names exactly as provided and wrapped in double quotes " +
		"(e.g., SELECT \"Name\" FROM table). Provide explanations and code blocks for SQL " +
		"where appropriate. Format output clearly with headings."
}

func findLayer(cat *executor.Catalog, name string) *executor.LayerInfo {
	if name == "" {
		return nil
	}
	for i := range cat.Layers {
		if cat.Layers[i].Name == name {
			return &cat.Layers[i]
		}
	}
	return nil
}
