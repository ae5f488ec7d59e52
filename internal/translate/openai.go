package translate

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// implements Translator using OpenAI Chat Completions. With Endpoint set it
// talks to any OpenAI-compatible local server (vLLM, LM Studio, llama.cpp).
type OpenAITranslator struct {
	engine
	client openai.Client
	model  string
}

func NewOpenAITranslator(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAITranslator, error) {
	if apiKey == "" && opts.Endpoint == "" {
		return nil, fmt.Errorf("API key is required")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.Endpoint))
	}
	client := openai.NewClient(clientOpts...)

	model := opts.Model
	if model == "" {
		model = "gpt-5-mini"
	}

	t := &OpenAITranslator{
		client: client,
		model:  model,
	}
	t.engine = engine{opts: opts, call: t.translateBatch}
	return t, nil
}

func (t *OpenAITranslator) translateBatch(
	ctx context.Context,
	items []TranslationItem,
	strict bool,
) ([]TranslationResult, error) {
	prompt := BuildPrompt(t.engine.opts, items, strict)

	messages := []openai.ChatCompletionMessageParamUnion{}
	if t.engine.opts.SystemPrompt != "" {
		messages = append(
			messages,
			openai.SystemMessage(t.engine.opts.SystemPrompt),
		)
	}
	messages = append(messages, openai.UserMessage(prompt))

	completion, err := t.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages:    messages,
			Model:       t.model,
			Temperature: openai.Float(t.engine.opts.Temperature),
		},
	)
	if err != nil {
		return nil, &EndpointError{
			Endpoint: t.engine.opts.Endpoint,
			Err:      err,
		}
	}

	if completion == nil || len(completion.Choices) == 0 {
		return nil, &ResponseFormatError{
			Expected: len(items),
			Got:      0,
			Detail:   "empty completion",
		}
	}

	return parseBatchResponse(completion.Choices[0].Message.Content, items)
}

func (t *OpenAITranslator) Close() error {
	return nil
}
