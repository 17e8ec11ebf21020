package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/geoquery/geoquery/internal/llm"
	"github.com/rs/zerolog/log"
)

// Describer turns an uploaded image into a textual workflow description.
// Implemented by the vision package; nil when no vision service is
// configured, in which case a vision-capable provider analyzes the image
// directly.
type Describer interface {
	Describe(ctx context.Context, imageBase64, mediaType string) (string, error)
}

const directVisionPrompt = "Analyze this workflow diagram. List all:\n" +
	"1. Input layers/data sources\n" +
	"2. Processing steps/algorithms\n" +
	"3. Parameters and settings\n" +
	"4. Output layers\n" +
	"5. Connections between steps\n" +
	"Provide detailed, structured information."

const sqlFromImageSystemPrompt = `You are an expert SQL developer. Your task is to convert geoprocessing workflows described in natural language to working SQL code.

Rules:
- Generate ONLY valid SQL code
- Wrap the code in ` + "```sql```" + ` code blocks
- No explanations or markdown outside the code block
- Handle spatial operations if mentioned (e.g., ST_Contains, ST_Intersects)
- Be specific with table and column names from the description
- Return working, executable SQL`

const pythonFromImageSystemPrompt = `You are an expert Python developer for geospatial processing. Your task is to convert geoprocessing workflows described in natural language to working Python code.

Rules:
- Generate ONLY valid Python code
- Wrap the code in ` + "```python```" + ` code blocks
- No explanations or markdown outside the code block
- Include necessary imports
- Return working, executable Python code`

// ImageResult is the outcome of the image-to-code pipeline. SQL and
// Python are produced by independent generations; either may be empty.
type ImageResult struct {
	Description string
	SQL         string
	Python      string
}

// ImageToCode turns a workflow diagram into SQL and Python code. The
// image is first reduced to a textual description, then two independent
// generations convert that description to each target language. One
// failing generation does not fail the pipeline; both failing does.
func (a *Assistant) ImageToCode(ctx context.Context, imageBase64, mediaType string, provider llm.Provider, model string) (*ImageResult, error) {
	description, err := a.describeImage(ctx, imageBase64, mediaType, provider)
	if err != nil {
		return nil, fmt.Errorf("describe image: %w", err)
	}

	res := &ImageResult{Description: description}

	if sqlText, err := a.codeFromDescription(ctx, description, CodeSQL, provider, model); err != nil {
		log.Warn().Err(err).Msg("SQL generation from image description failed")
	} else {
		res.SQL = sqlText
	}

	if pyText, err := a.codeFromDescription(ctx, description, CodePython, provider, model); err != nil {
		log.Warn().Err(err).Msg("Python generation from image description failed")
	} else {
		res.Python = pyText
	}

	if res.SQL == "" && res.Python == "" {
		return nil, fmt.Errorf("no code could be generated from the image description")
	}
	return res, nil
}

func (a *Assistant) describeImage(ctx context.Context, imageBase64, mediaType string, provider llm.Provider) (string, error) {
	if a.vision != nil {
		return a.vision.Describe(ctx, imageBase64, mediaType)
	}

	// No vision service configured: ask a vision-capable provider directly.
	description, err := a.dispatch.Query(ctx, provider, llm.Request{
		Prompt: directVisionPrompt,
		Model:  a.dispatch.VisionModel(),
		Images: []llm.Image{{MediaType: mediaType, Data: imageBase64}},
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(description) == "" {
		return "", fmt.Errorf("image analysis returned no description")
	}
	return description, nil
}

func (a *Assistant) codeFromDescription(ctx context.Context, description string, kind CodeKind, provider llm.Provider, model string) (string, error) {
	lang := "SQL"
	system := sqlFromImageSystemPrompt
	if kind == CodePython {
		lang = "Python"
		system = pythonFromImageSystemPrompt
	}

	prompt := fmt.Sprintf(`Convert this geoprocessing workflow to %s code:

WORKFLOW DESCRIPTION:
%s

REQUIREMENTS:
- Output type: %s
- Generate complete, working %s code
- Wrap code in %s code block
- No explanations, only code

Generate the %s code now:`,
		lang, description, lang, lang, "```"+strings.ToLower(lang)+"```", lang)

	content, err := a.dispatch.Query(ctx, provider, llm.Request{
		Prompt:       prompt,
		SystemPrompt: system,
		Model:        model,
	})
	if err != nil {
		return "", err
	}

	code := ExtractCode(content, kind)
	if code == "" {
		return "", fmt.Errorf("response contained no %s code", lang)
	}
	log.Info().Str("kind", string(kind)).Int("chars", len(code)).Msg("code generated from image description")
	return code, nil
}
