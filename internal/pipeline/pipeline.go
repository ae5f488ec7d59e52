package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/PocketMiner82/LLMSRTTranslator/internal/config"
	"github.com/PocketMiner82/LLMSRTTranslator/internal/logging"
	"github.com/PocketMiner82/LLMSRTTranslator/internal/subtitle"
	"github.com/PocketMiner82/LLMSRTTranslator/internal/translate"
)

// optional interface for translators that can check endpoint connectivity
type pinger interface {
	Ping(ctx context.Context) error
}

// Runner orchestrates a translation run over a directory of subtitle files.
type Runner struct {
	cfg        *config.Config
	logger     *logging.Logger
	translator translate.Translator
}

func New(
	cfg *config.Config,
	logger *logging.Logger,
	translator translate.Translator,
) *Runner {
	return &Runner{
		cfg:        cfg,
		logger:     logger,
		translator: translator,
	}
}

// Run translates every subtitle file in inputDir into outputDir, one output
// per input with the same base filename. Files are processed by a bounded
// worker pool; the failure policy decides whether one bad file aborts the run
// or is skipped with a logged error.
func (r *Runner) Run(ctx context.Context, inputDir, outputDir string) error {
	paths, err := discoverSubtitleFiles(inputDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		r.logger.Warnw("No subtitle files found", "dir", inputDir)
		return nil
	}

	if p, ok := r.translator.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("model endpoint not reachable: %w", err)
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	r.logger.Infow("Starting translation run",
		"files", len(paths),
		"input_dir", inputDir,
		"output_dir", outputDir,
		"target_language", r.cfg.Translation.TargetLanguage,
		"concurrency", r.cfg.Run.Concurrency,
		"on_error", r.cfg.Run.OnError,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := newSemaphore(r.cfg.Run.Concurrency)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	failed := 0

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		if err := sem.acquire(ctx); err != nil {
			break
		}

		wg.Add(1)
		go func(inputPath string) {
			defer wg.Done()
			defer sem.release()

			outputPath := filepath.Join(outputDir, filepath.Base(inputPath))
			if err := r.processFile(ctx, inputPath, outputPath); err != nil {
				mu.Lock()
				failed++
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", filepath.Base(inputPath), err)
				}
				mu.Unlock()

				if r.cfg.Run.OnError == config.OnErrorAbort {
					r.logger.Errorw("File failed, aborting run",
						"file", inputPath,
						"error", err,
					)
					cancel()
				} else {
					r.logger.Warnw("File failed, skipping",
						"file", inputPath,
						"error", err,
					)
				}
			}
		}(path)
	}

	wg.Wait()

	if r.cfg.Run.OnError == config.OnErrorAbort && firstErr != nil {
		return firstErr
	}
	if failed > 0 {
		r.logger.Warnw("Run finished with failures",
			"failed", failed,
			"total", len(paths),
		)
	} else {
		r.logger.Infow("Run finished", "files", len(paths))
	}
	return nil
}

// processFile translates one subtitle file. Output is written only once every
// batch has succeeded, so a failed file leaves no output artifact.
func (r *Runner) processFile(ctx context.Context, inputPath, outputPath string) error {
	subFile, err := subtitle.Open(inputPath)
	if err != nil {
		return err
	}

	sub := subFile.Subtitle()
	r.logger.Infow("Translating file",
		"file", filepath.Base(inputPath),
		"cues", len(sub.Entries),
	)

	// zero cues: valid empty output, no model calls
	if len(sub.Entries) == 0 {
		return subFile.Write(outputPath)
	}

	items := make([]translate.TranslationItem, len(sub.Entries))
	for i, entry := range sub.Entries {
		items[i] = translate.TranslationItem{
			Index: i,
			Text:  entry.Text,
		}
	}

	var results []translate.TranslationResult
	if ct, ok := r.translator.(translate.ConcurrentTranslator); ok {
		results, err = ct.TranslateWithConcurrency(ctx, items, r.cfg.Run.BatchConcurrency)
	} else {
		results, err = r.translator.Translate(ctx, items)
	}
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	for _, result := range results {
		if result.Index < 0 || result.Index >= len(sub.Entries) {
			return fmt.Errorf(
				"translation result index %d out of range",
				result.Index,
			)
		}

		text := result.Text
		if r.cfg.Translation.Overlay {
			// translated + newline + original
			text = result.Text + "\n" + sub.Entries[result.Index].Text
		}
		if err := subFile.SetText(result.Index, text); err != nil {
			return fmt.Errorf("failed to set text for cue %d: %w", result.Index, err)
		}
	}

	if err := subFile.Write(outputPath); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	r.logger.Infow("File translated",
		"file", filepath.Base(inputPath),
		"output", outputPath,
	)
	return nil
}

func discoverSubtitleFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if subtitle.IsSubtitlePath(entry.Name()) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(paths)
	return paths, nil
}
