package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// implements Translator against a local Ollama server's generate API
type OllamaTranslator struct {
	engine
	endpoint   string
	model      string
	httpClient *http.Client
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func NewOllamaTranslator(opts Options) (*OllamaTranslator, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("endpoint URL is required for the ollama provider")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("model name is required for the ollama provider")
	}

	t := &OllamaTranslator{
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		model:    opts.Model,
		httpClient: &http.Client{
			Timeout: opts.requestTimeout(),
		},
	}
	t.engine = engine{opts: opts, call: t.translateBatch}
	return t, nil
}

// Ping checks that the Ollama server answers at all before a run starts.
func (t *OllamaTranslator) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return t.endpointError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &EndpointError{
			Endpoint: t.endpoint,
			Err:      fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
	return nil
}

func (t *OllamaTranslator) translateBatch(
	ctx context.Context,
	items []TranslationItem,
	strict bool,
) ([]TranslationResult, error) {
	reqBody := ollamaGenerateRequest{
		Model:  t.model,
		Prompt: BuildPrompt(t.engine.opts, items, strict),
		System: t.engine.opts.SystemPrompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: t.engine.opts.Temperature,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		t.endpoint+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, t.endpointError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, t.endpointError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &EndpointError{
			Endpoint: t.endpoint,
			Err: fmt.Errorf(
				"status %d: %s",
				resp.StatusCode,
				truncateString(string(body), 200),
			),
		}
	}

	var genResp ollamaGenerateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, &ResponseFormatError{
			Expected: len(items),
			Got:      0,
			Detail:   "unparseable generate response",
		}
	}

	return parseBatchResponse(genResp.Response, items)
}

// maps transport failures onto *EndpointError, flagging timeouts
func (t *OllamaTranslator) endpointError(err error) *EndpointError {
	var netErr net.Error
	timeout := errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout())
	return &EndpointError{
		Endpoint: t.endpoint,
		Timeout:  timeout,
		Err:      err,
	}
}

func (t *OllamaTranslator) Close() error {
	return nil
}
