package translate

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// implements Translator using Google Gemini
type GeminiTranslator struct {
	engine
	client *genai.Client
	model  string
}

func NewGeminiTranslator(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*GeminiTranslator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	t := &GeminiTranslator{
		client: client,
		model:  model,
	}
	t.engine = engine{opts: opts, call: t.translateBatch}
	return t, nil
}

func (t *GeminiTranslator) translateBatch(
	ctx context.Context,
	items []TranslationItem,
	strict bool,
) ([]TranslationResult, error) {
	prompt := BuildPrompt(t.engine.opts, items, strict)

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := t.client.Models.GenerateContent(ctx, t.model, contents, t.generateConfig())
	if err != nil {
		return nil, &EndpointError{
			Endpoint: "generativelanguage.googleapis.com",
			Err:      err,
		}
	}

	if result == nil || len(result.Candidates) == 0 {
		return nil, &ResponseFormatError{
			Expected: len(items),
			Got:      0,
			Detail:   "empty response",
		}
	}

	var responseText string
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				responseText += part.Text
			}
		}
		if responseText != "" {
			break
		}
	}

	return parseBatchResponse(responseText, items)
}

func (t *GeminiTranslator) generateConfig() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(t.engine.opts.Temperature)),
	}
	if t.engine.opts.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(
			t.engine.opts.SystemPrompt,
			genai.RoleUser,
		)
	}
	return config
}

func (t *GeminiTranslator) Close() error {
	return nil
}
