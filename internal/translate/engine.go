package translate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// sends one batch to a provider. strict requests the tightened prompt used for
// the single retry after a malformed response.
type batchFunc func(
	ctx context.Context,
	items []TranslationItem,
	strict bool,
) ([]TranslationResult, error)

// engine implements the batching, retry and worker-pool logic shared by all
// providers. Providers supply only the per-batch API call.
type engine struct {
	opts Options
	call batchFunc
}

func (e *engine) Translate(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}

	batches := MakeBatches(items, e.opts.batchSize())

	var allResults []TranslationResult
	for i, batch := range batches {
		results, err := e.translateBatch(ctx, batch.Items)
		if err != nil {
			return nil, fmt.Errorf("batch %d failed: %w", i, err)
		}
		allResults = append(allResults, results...)
	}

	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].Index < allResults[j].Index
	})

	return allResults, nil
}

// Items are split into batches of BatchSize (default 50). Each batch becomes
// one API request. Workers (up to concurrency) pull batches from a shared
// queue; batches complete in any order and are reassembled by index.
func (e *engine) TranslateWithConcurrency(
	ctx context.Context,
	items []TranslationItem,
	concurrency int,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}

	if concurrency <= 0 {
		concurrency = 3
	}

	batches := MakeBatches(items, e.opts.batchSize())
	if len(batches) == 1 {
		return e.translateBatch(ctx, batches[0].Items)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type batchResult struct {
		Index   int
		Results []TranslationResult
		Error   error
	}

	workChan := make(chan int)
	resultChan := make(chan batchResult, len(batches))

	var wg sync.WaitGroup
	for i := 0; i < concurrency && i < len(batches); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case batchIdx, ok := <-workChan:
					if !ok {
						return
					}
					if ctx.Err() != nil {
						return
					}

					results, err := e.translateBatch(ctx, batches[batchIdx].Items)
					if err != nil {
						cancel()
					}
					resultChan <- batchResult{
						Index:   batchIdx,
						Results: results,
						Error:   err,
					}
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var firstErr error
	var allResults []TranslationResult
	for result := range resultChan {
		if result.Error != nil && firstErr == nil {
			firstErr = fmt.Errorf(
				"batch %d failed: %w",
				result.Index,
				result.Error,
			)
			cancel()
		}
		if result.Error == nil {
			allResults = append(allResults, result.Results...)
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].Index < allResults[j].Index
	})

	return allResults, nil
}

// translateBatch runs one batch through the provider call with the retry
// policy: endpoint errors are retried with backoff up to MaxRetries, a
// malformed response is retried exactly once with a stricter prompt.
func (e *engine) translateBatch(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	strict := false
	strictRetried := false
	endpointAttempts := 0

	for {
		results, err := e.call(ctx, items, strict)
		if err == nil {
			return orderResults(results, items)
		}

		var endpointErr *EndpointError
		if errors.As(err, &endpointErr) && endpointAttempts < e.opts.maxRetries() {
			endpointAttempts++
			if sleepErr := sleepContext(ctx, backoffDelay(endpointAttempts)); sleepErr != nil {
				return nil, err
			}
			continue
		}

		var formatErr *ResponseFormatError
		if errors.As(err, &formatErr) && !strictRetried {
			strictRetried = true
			strict = true
			continue
		}

		return nil, err
	}
}

// orderResults verifies that the model returned exactly one segment per
// submitted item and returns them in submission order. Any mismatch fails the
// batch with *ResponseFormatError so no cue is mutated.
func orderResults(
	results []TranslationResult,
	items []TranslationItem,
) ([]TranslationResult, error) {
	if len(results) != len(items) {
		return nil, &ResponseFormatError{
			Expected: len(items),
			Got:      len(results),
		}
	}

	byIndex := make(map[int]TranslationResult, len(results))
	for _, r := range results {
		if _, dup := byIndex[r.Index]; dup {
			return nil, &ResponseFormatError{
				Expected: len(items),
				Got:      len(results),
				Detail:   fmt.Sprintf("duplicate index %d", r.Index),
			}
		}
		byIndex[r.Index] = r
	}

	ordered := make([]TranslationResult, 0, len(items))
	for _, item := range items {
		r, ok := byIndex[item.Index]
		if !ok {
			return nil, &ResponseFormatError{
				Expected: len(items),
				Got:      len(results),
				Detail:   fmt.Sprintf("missing index %d", item.Index),
			}
		}
		ordered = append(ordered, r)
	}

	return ordered, nil
}

func backoffDelay(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt-1)) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
