package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 4000

// Anthropic implements Querier via the official SDK. This is the
// vision-capable provider: requests may carry base64 image blocks with a
// declared media type alongside the text block.
type Anthropic struct {
	client *anthropic.Client
	model  string
}

var _ Querier = (*Anthropic)(nil)

// NewAnthropic creates an Anthropic provider. baseURL overrides the API
// endpoint for compatible proxies; empty means the default endpoint.
func NewAnthropic(apiKey, model, baseURL string) (*Anthropic, error) {
	if apiKey == "" {
		return nil, newErr(ProviderAnthropic, ErrMisconfigured, "ANTHROPIC_API_KEY not set")
	}
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Anthropic{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

func (a *Anthropic) Name() string {
	return fmt.Sprintf("Anthropic (%s)", a.model)
}

func (a *Anthropic) Query(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	var blocks []anthropic.ContentBlockParamUnion
	for _, img := range req.Images {
		mediaType := img.MediaType
		if mediaType == "" {
			mediaType = "image/png"
		}
		blocks = append(blocks, anthropic.NewImageBlockBase64(mediaType, img.Data))
	}
	blocks = append(blocks, anthropic.NewTextBlock(req.Prompt))

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(model)),
		MaxTokens: anthropic.F(int64(anthropicMaxTokens)),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		}),
	}
	if req.SystemPrompt != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(req.SystemPrompt),
		})
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", newErr(ProviderAnthropic, ErrRejected, "messages call failed: %v", err)
	}

	var text string
	for _, block := range resp.Content {
		if b, ok := block.AsUnion().(anthropic.TextBlock); ok {
			text += b.Text
		}
	}
	return text, nil
}
