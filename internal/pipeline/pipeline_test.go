package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PocketMiner82/LLMSRTTranslator/internal/config"
	"github.com/PocketMiner82/LLMSRTTranslator/internal/logging"
	"github.com/PocketMiner82/LLMSRTTranslator/internal/translate"
)

type mockTranslator struct {
	calls atomic.Int32
	fn    func(items []translate.TranslationItem) ([]translate.TranslationResult, error)
}

func (m *mockTranslator) Translate(
	ctx context.Context,
	items []translate.TranslationItem,
) ([]translate.TranslationResult, error) {
	m.calls.Add(1)
	return m.fn(items)
}

func echoTranslator(prefix string) *mockTranslator {
	return &mockTranslator{
		fn: func(items []translate.TranslationItem) ([]translate.TranslationResult, error) {
			results := make([]translate.TranslationResult, len(items))
			for i, item := range items {
				results[i] = translate.TranslationResult{
					Index: item.Index,
					Text:  prefix + item.Text,
				}
			}
			return results, nil
		},
	}
}

type mockConcurrentTranslator struct {
	mockTranslator
	gotConcurrency atomic.Int32
}

func (m *mockConcurrentTranslator) TranslateWithConcurrency(
	ctx context.Context,
	items []translate.TranslationItem,
	concurrency int,
) ([]translate.TranslationResult, error) {
	m.gotConcurrency.Store(int32(concurrency))
	return m.Translate(ctx, items)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Server:      config.ServerConfig{Model: "gemma2"},
		Translation: config.TranslationConfig{TargetLanguage: "French"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config.Validate failed: %v", err)
	}
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestRunTranslatesDirectory(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeFile(t, filepath.Join(inputDir, "e01.srt"),
		"1\n00:00:01,000 --> 00:00:02,000\nHello\n\n2\n00:00:03,000 --> 00:00:04,000\nGoodbye\n")
	writeFile(t, filepath.Join(inputDir, "e02.srt"),
		"1\n00:00:05,000 --> 00:00:06,000\nGood morning\n")
	writeFile(t, filepath.Join(inputDir, "notes.txt"), "not a subtitle")

	runner := New(testConfig(t), logging.NewNop(), echoTranslator("fr:"))
	if err := runner.Run(context.Background(), inputDir, outputDir); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	out, err := os.ReadFile(filepath.Join(outputDir, "e01.srt"))
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	content := string(out)
	if !strings.Contains(content, "fr:Hello") || !strings.Contains(content, "fr:Goodbye") {
		t.Errorf("translated text missing from output:\n%s", content)
	}
	if !strings.Contains(content, "00:00:01,000 --> 00:00:02,000") {
		t.Errorf("timestamps changed:\n%s", content)
	}

	if _, err := os.Stat(filepath.Join(outputDir, "e02.srt")); err != nil {
		t.Errorf("second output missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "notes.txt")); !os.IsNotExist(err) {
		t.Error("non-subtitle file must not produce output")
	}
}

func TestRunPreservesTimingOnTranslation(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeFile(t, filepath.Join(inputDir, "hello.srt"),
		"1\n00:00:01,000 --> 00:00:02,000\nHello\n")

	translator := &mockTranslator{
		fn: func(items []translate.TranslationItem) ([]translate.TranslationResult, error) {
			return []translate.TranslationResult{{Index: 0, Text: "Bonjour"}}, nil
		},
	}

	runner := New(testConfig(t), logging.NewNop(), translator)
	if err := runner.Run(context.Background(), inputDir, outputDir); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	out, err := os.ReadFile(filepath.Join(outputDir, "hello.srt"))
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	want := "1\n00:00:01,000 --> 00:00:02,000\nBonjour\n\n"
	if string(out) != want {
		t.Errorf("unexpected output:\ngot:  %q\nwant: %q", string(out), want)
	}
}

func TestRunReassemblesOutOfOrderResults(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeFile(t, filepath.Join(inputDir, "three.srt"),
		"1\n00:00:01,000 --> 00:00:02,000\nOne\n\n"+
			"2\n00:00:03,000 --> 00:00:04,000\nTwo\n\n"+
			"3\n00:00:05,000 --> 00:00:06,000\nThree\n")

	translator := &mockTranslator{
		fn: func(items []translate.TranslationItem) ([]translate.TranslationResult, error) {
			// results arrive out of order, indices decide placement
			return []translate.TranslationResult{
				{Index: 2, Text: "Trois"},
				{Index: 0, Text: "Un"},
				{Index: 1, Text: "Deux"},
			}, nil
		},
	}

	runner := New(testConfig(t), logging.NewNop(), translator)
	if err := runner.Run(context.Background(), inputDir, outputDir); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	out, _ := os.ReadFile(filepath.Join(outputDir, "three.srt"))
	content := string(out)

	unIdx := strings.Index(content, "Un")
	deuxIdx := strings.Index(content, "Deux")
	troisIdx := strings.Index(content, "Trois")
	if unIdx < 0 || deuxIdx < unIdx || troisIdx < deuxIdx {
		t.Errorf("segments not placed at original cue positions:\n%s", content)
	}
}

func TestRunFailedFileLeavesNoOutput(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeFile(t, filepath.Join(inputDir, "bad.srt"),
		"1\n00:00:01,000 --> 00:00:02,000\nOne\n\n"+
			"2\n00:00:03,000 --> 00:00:04,000\nTwo\n\n"+
			"3\n00:00:05,000 --> 00:00:06,000\nThree\n")

	translator := &mockTranslator{
		fn: func(items []translate.TranslationItem) ([]translate.TranslationResult, error) {
			return nil, &translate.ResponseFormatError{Expected: len(items), Got: 2}
		},
	}

	runner := New(testConfig(t), logging.NewNop(), translator)
	// default policy is skip, so the run itself succeeds
	if err := runner.Run(context.Background(), inputDir, outputDir); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(outputDir, "bad.srt")); !os.IsNotExist(err) {
		t.Error("failed file must leave no output artifact")
	}
}

func TestRunEmptyFileWritesEmptyOutputWithoutClientCalls(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeFile(t, filepath.Join(inputDir, "empty.srt"), "")

	translator := echoTranslator("fr:")
	runner := New(testConfig(t), logging.NewNop(), translator)
	if err := runner.Run(context.Background(), inputDir, outputDir); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	out, err := os.ReadFile(filepath.Join(outputDir, "empty.srt"))
	if err != nil {
		t.Fatalf("empty output missing: %v", err)
	}
	if string(out) != "" {
		t.Errorf("expected empty output, got %q", string(out))
	}
	if translator.calls.Load() != 0 {
		t.Errorf("expected no client calls for empty file, got %d", translator.calls.Load())
	}
}

func TestRunSkipPolicyContinuesPastBadFile(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeFile(t, filepath.Join(inputDir, "a_broken.srt"), "no index here\n")
	writeFile(t, filepath.Join(inputDir, "b_good.srt"),
		"1\n00:00:01,000 --> 00:00:02,000\nHello\n")

	cfg := testConfig(t)
	cfg.Run.Concurrency = 1

	runner := New(cfg, logging.NewNop(), echoTranslator("fr:"))
	if err := runner.Run(context.Background(), inputDir, outputDir); err != nil {
		t.Fatalf("Run failed under skip policy: %v", err)
	}

	if _, err := os.Stat(filepath.Join(outputDir, "a_broken.srt")); !os.IsNotExist(err) {
		t.Error("broken file must leave no output")
	}
	if _, err := os.Stat(filepath.Join(outputDir, "b_good.srt")); err != nil {
		t.Errorf("good file should still be translated: %v", err)
	}
}

func TestRunAbortPolicyStopsRun(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeFile(t, filepath.Join(inputDir, "a_broken.srt"), "no index here\n")
	writeFile(t, filepath.Join(inputDir, "b_good.srt"),
		"1\n00:00:01,000 --> 00:00:02,000\nHello\n")

	cfg := testConfig(t)
	cfg.Run.Concurrency = 1
	cfg.Run.OnError = config.OnErrorAbort

	runner := New(cfg, logging.NewNop(), echoTranslator("fr:"))
	if err := runner.Run(context.Background(), inputDir, outputDir); err == nil {
		t.Fatal("expected error under abort policy")
	}
}

func TestRunOverlayKeepsOriginalText(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeFile(t, filepath.Join(inputDir, "hello.srt"),
		"1\n00:00:01,000 --> 00:00:02,000\nHello\n")

	cfg := testConfig(t)
	cfg.Translation.Overlay = true

	translator := &mockTranslator{
		fn: func(items []translate.TranslationItem) ([]translate.TranslationResult, error) {
			return []translate.TranslationResult{{Index: 0, Text: "Bonjour"}}, nil
		},
	}

	runner := New(cfg, logging.NewNop(), translator)
	if err := runner.Run(context.Background(), inputDir, outputDir); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	out, _ := os.ReadFile(filepath.Join(outputDir, "hello.srt"))
	if !strings.Contains(string(out), "Bonjour\nHello") {
		t.Errorf("expected bilingual overlay, got:\n%s", string(out))
	}
}

func TestRunUsesBatchConcurrencyForBatchPool(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeFile(t, filepath.Join(inputDir, "hello.srt"),
		"1\n00:00:01,000 --> 00:00:02,000\nHello\n")

	cfg := testConfig(t)
	cfg.Run.Concurrency = 4
	cfg.Run.BatchConcurrency = 2

	translator := &mockConcurrentTranslator{}
	translator.fn = func(items []translate.TranslationItem) ([]translate.TranslationResult, error) {
		results := make([]translate.TranslationResult, len(items))
		for i, item := range items {
			results[i] = translate.TranslationResult{Index: item.Index, Text: "fr:" + item.Text}
		}
		return results, nil
	}
	runner := New(cfg, logging.NewNop(), translator)
	if err := runner.Run(context.Background(), inputDir, outputDir); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// the per-file batch pool must use its own bound, not the file bound
	if got := translator.gotConcurrency.Load(); got != 2 {
		t.Errorf("expected batch concurrency 2, got %d", got)
	}
}

func TestRunEmptyDirectory(t *testing.T) {
	runner := New(testConfig(t), logging.NewNop(), echoTranslator(""))
	if err := runner.Run(context.Background(), t.TempDir(), t.TempDir()); err != nil {
		t.Fatalf("Run over empty directory failed: %v", err)
	}
}
