package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
)

func echoTranslate(prefix string) batchFunc {
	return func(
		ctx context.Context,
		items []TranslationItem,
		strict bool,
	) ([]TranslationResult, error) {
		results := make([]TranslationResult, len(items))
		for i, item := range items {
			results[i] = TranslationResult{
				Index: item.Index,
				Text:  prefix + item.Text,
			}
		}
		return results, nil
	}
}

func makeItems(n int) []TranslationItem {
	items := make([]TranslationItem, n)
	for i := range items {
		items[i] = TranslationItem{Index: i, Text: fmt.Sprintf("line %d", i)}
	}
	return items
}

func TestEngineTranslateOrdersResults(t *testing.T) {
	e := &engine{
		opts: Options{TargetLanguage: "French", BatchSize: 2},
		call: echoTranslate("fr:"),
	}

	results, err := e.Translate(context.Background(), makeItems(5))
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d has index %d", i, r.Index)
		}
		if r.Text != fmt.Sprintf("fr:line %d", i) {
			t.Errorf("result %d has text %q", i, r.Text)
		}
	}
}

func TestEngineTranslateEmpty(t *testing.T) {
	calls := 0
	e := &engine{
		opts: Options{TargetLanguage: "French"},
		call: func(ctx context.Context, items []TranslationItem, strict bool) ([]TranslationResult, error) {
			calls++
			return nil, nil
		},
	}

	results, err := e.Translate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
	if calls != 0 {
		t.Errorf("expected no provider calls for zero items, got %d", calls)
	}
}

func TestEngineCountMismatchFailsBatch(t *testing.T) {
	var calls atomic.Int32
	e := &engine{
		opts: Options{TargetLanguage: "French", BatchSize: 10},
		call: func(ctx context.Context, items []TranslationItem, strict bool) ([]TranslationResult, error) {
			calls.Add(1)
			// always one segment short
			results := make([]TranslationResult, 0, len(items)-1)
			for _, item := range items[:len(items)-1] {
				results = append(results, TranslationResult{Index: item.Index, Text: item.Text})
			}
			return results, nil
		},
	}

	_, err := e.Translate(context.Background(), makeItems(3))
	if err == nil {
		t.Fatal("expected error for segment count mismatch")
	}
	var formatErr *ResponseFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected *ResponseFormatError, got %T: %v", err, err)
	}
	if formatErr.Expected != 3 || formatErr.Got != 2 {
		t.Errorf("expected 3/2 mismatch, got %d/%d", formatErr.Expected, formatErr.Got)
	}
	// one strict retry, then terminal
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts (one strict retry), got %d", calls.Load())
	}
}

func TestEngineStrictRetryRecovers(t *testing.T) {
	var sawStrict atomic.Bool
	e := &engine{
		opts: Options{TargetLanguage: "French", BatchSize: 10},
		call: func(ctx context.Context, items []TranslationItem, strict bool) ([]TranslationResult, error) {
			if !strict {
				return nil, &ResponseFormatError{Expected: len(items), Got: 0}
			}
			sawStrict.Store(true)
			return echoTranslate("")(ctx, items, strict)
		},
	}

	results, err := e.Translate(context.Background(), makeItems(3))
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
	if !sawStrict.Load() {
		t.Error("expected a strict retry")
	}
}

func TestEngineRetriesEndpointErrors(t *testing.T) {
	var calls atomic.Int32
	e := &engine{
		opts: Options{TargetLanguage: "French", BatchSize: 10, MaxRetries: 1},
		call: func(ctx context.Context, items []TranslationItem, strict bool) ([]TranslationResult, error) {
			if calls.Add(1) == 1 {
				return nil, &EndpointError{Endpoint: "http://localhost:11434", Err: errors.New("refused")}
			}
			return echoTranslate("")(ctx, items, strict)
		},
	}

	results, err := e.Translate(context.Background(), makeItems(2))
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestEngineEndpointErrorExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	e := &engine{
		opts: Options{TargetLanguage: "French", BatchSize: 10, MaxRetries: 1},
		call: func(ctx context.Context, items []TranslationItem, strict bool) ([]TranslationResult, error) {
			calls.Add(1)
			return nil, &EndpointError{Endpoint: "http://localhost:11434", Err: errors.New("refused")}
		},
	}

	_, err := e.Translate(context.Background(), makeItems(1))
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	var endpointErr *EndpointError
	if !errors.As(err, &endpointErr) {
		t.Fatalf("expected *EndpointError, got %T", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts (1 + 1 retry), got %d", calls.Load())
	}
}

func TestEngineRejectsReorderedDuplicates(t *testing.T) {
	e := &engine{
		opts: Options{TargetLanguage: "French", BatchSize: 10},
		call: func(ctx context.Context, items []TranslationItem, strict bool) ([]TranslationResult, error) {
			return []TranslationResult{
				{Index: 0, Text: "a"},
				{Index: 0, Text: "b"},
			}, nil
		},
	}

	_, err := e.Translate(context.Background(), makeItems(2))
	var formatErr *ResponseFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected *ResponseFormatError, got %v", err)
	}
	if !strings.Contains(formatErr.Detail, "duplicate") {
		t.Errorf("expected duplicate detail, got %q", formatErr.Detail)
	}
}

func TestEngineTranslateWithConcurrency(t *testing.T) {
	e := &engine{
		opts: Options{TargetLanguage: "French", BatchSize: 3},
		call: echoTranslate("fr:"),
	}

	items := makeItems(20)
	results, err := e.TranslateWithConcurrency(context.Background(), items, 4)
	if err != nil {
		t.Fatalf("TranslateWithConcurrency failed: %v", err)
	}
	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d has index %d, reassembly out of order", i, r.Index)
		}
	}
}

func TestEngineConcurrencyPropagatesBatchFailure(t *testing.T) {
	e := &engine{
		opts: Options{TargetLanguage: "French", BatchSize: 2},
		call: func(ctx context.Context, items []TranslationItem, strict bool) ([]TranslationResult, error) {
			if items[0].Index >= 4 {
				return nil, &ResponseFormatError{Expected: len(items), Got: 0}
			}
			return echoTranslate("")(ctx, items, strict)
		},
	}

	_, err := e.TranslateWithConcurrency(context.Background(), makeItems(10), 3)
	if err == nil {
		t.Fatal("expected error when a batch fails")
	}
	var formatErr *ResponseFormatError
	if !errors.As(err, &formatErr) {
		t.Errorf("expected *ResponseFormatError, got %T: %v", err, err)
	}
}
