package translate

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// implements Translator using Anthropic Claude
type AnthropicTranslator struct {
	engine
	client anthropic.Client
	model  anthropic.Model
}

func NewAnthropicTranslator(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*AnthropicTranslator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}

	t := &AnthropicTranslator{
		client: client,
		model:  model,
	}
	t.engine = engine{opts: opts, call: t.translateBatch}
	return t, nil
}

func (t *AnthropicTranslator) translateBatch(
	ctx context.Context,
	items []TranslationItem,
	strict bool,
) ([]TranslationResult, error) {
	prompt := BuildPrompt(t.engine.opts, items, strict)

	message, err := t.client.Messages.New(ctx, t.newMessageParams(prompt))
	if err != nil {
		return nil, &EndpointError{
			Endpoint: "api.anthropic.com",
			Err:      err,
		}
	}

	if message == nil || len(message.Content) == 0 {
		return nil, &ResponseFormatError{
			Expected: len(items),
			Got:      0,
			Detail:   "empty message",
		}
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}

	return parseBatchResponse(responseText, items)
}

func (t *AnthropicTranslator) newMessageParams(prompt string) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       t.model,
		MaxTokens:   4096,
		Temperature: anthropic.Float(t.engine.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
	}
	if t.engine.opts.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: t.engine.opts.SystemPrompt},
		}
	}
	return params
}

func (t *AnthropicTranslator) Close() error {
	return nil
}
