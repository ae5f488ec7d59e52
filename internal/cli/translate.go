package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PocketMiner82/LLMSRTTranslator/internal/config"
	"github.com/PocketMiner82/LLMSRTTranslator/internal/pipeline"
	"github.com/PocketMiner82/LLMSRTTranslator/internal/translate"
	"github.com/spf13/cobra"
)

var translateCmd = &cobra.Command{
	Use:   "translate [input_dir]",
	Short: "Translate all subtitle files in a directory",
	Long: `Translate every subtitle file in a directory, writing one translated file
per input into the output directory with the same base filename.

All options can come from a YAML config file (--config) or from flags; flags
win. The default provider is a local Ollama server.

Examples:
  llmsrt translate ./subs --target-language German --model gemma2
  llmsrt translate ./subs -o ./subs-de --endpoint http://server:11434 --model gemma2 -t German
  llmsrt translate --config llmsrt.yaml
  llmsrt translate ./subs -t French --provider openai --api-key sk-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language for translation")
	translateCmd.Flags().
		String("provider", "", "Translation provider (ollama, openai, anthropic, gemini)")
	translateCmd.Flags().
		String("endpoint", "", "Model server base URL (e.g. http://localhost:11434)")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key for hosted providers (or env var)")
	translateCmd.Flags().
		String("model", "", "Model identifier (e.g. gemma2)")
	translateCmd.Flags().
		String("system-prompt", "", "System prompt setting tone and context")
	translateCmd.Flags().
		Float64("temperature", 0, "Sampling temperature")
	translateCmd.Flags().
		Int("batch-size", 0, "Number of cues per model request")
	translateCmd.Flags().
		Int("concurrency", 0, "Number of files translated in parallel")
	translateCmd.Flags().
		Int("batch-concurrency", 0, "Number of parallel batch requests per file")
	translateCmd.Flags().
		Duration("timeout", 0, "Per-request timeout (e.g. 2m)")
	translateCmd.Flags().
		String("on-error", "", "Failure policy when one file fails (abort, skip)")
	translateCmd.Flags().
		Bool("overlay", false, "Bilingual output: translated text above the original")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyTranslateFlags(cmd, cfg, args)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Paths.Input == "" {
		return fmt.Errorf("input directory is required (argument or paths.input)")
	}
	if cfg.Paths.Output == "" {
		return fmt.Errorf("output directory is required (--output or paths.output)")
	}
	if _, err := os.Stat(cfg.Paths.Input); os.IsNotExist(err) {
		return fmt.Errorf("input directory not found: %s", cfg.Paths.Input)
	}

	provider := translate.Provider(cfg.Server.Provider)
	apiKey := resolveAPIKey(cfg.Server.APIKey, provider)

	ctx, stop := signal.NotifyContext(
		cmd.Context(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	opts := translate.Options{
		Endpoint:       cfg.Server.Endpoint,
		InputLanguage:  cfg.Translation.InputLanguage,
		TargetLanguage: cfg.Translation.TargetLanguage,
		Model:          cfg.Server.Model,
		SystemPrompt:   cfg.Translation.SystemPrompt,
		Temperature:    cfg.Translation.Temperature,
		BatchSize:      cfg.Translation.BatchSize,
		RequestTimeout: time.Duration(cfg.Server.Timeout),
		MaxRetries:     cfg.Run.MaxRetries,
	}

	translator, err := translate.Factory(ctx, provider, apiKey, opts)
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	runner := pipeline.New(cfg, logger, translator)
	if err := runner.Run(ctx, cfg.Paths.Input, cfg.Paths.Output); err != nil {
		return fmt.Errorf("translation run failed: %w", err)
	}

	fmt.Printf("Subtitles translated to %s: %s\n",
		cfg.Translation.TargetLanguage,
		cfg.Paths.Output,
	)
	return nil
}

// flags override config file values; only flags the user actually set count
func applyTranslateFlags(cmd *cobra.Command, cfg *config.Config, args []string) {
	if len(args) > 0 {
		cfg.Paths.Input = args[0]
	}
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		cfg.Paths.Output = out
	}
	if lang, _ := cmd.Flags().GetString("language"); lang != "" {
		cfg.Translation.InputLanguage = lang
	}

	flags := cmd.Flags()
	if flags.Changed("target-language") {
		cfg.Translation.TargetLanguage, _ = flags.GetString("target-language")
	}
	if flags.Changed("provider") {
		cfg.Server.Provider, _ = flags.GetString("provider")
	}
	if flags.Changed("endpoint") {
		cfg.Server.Endpoint, _ = flags.GetString("endpoint")
	}
	if flags.Changed("api-key") {
		cfg.Server.APIKey, _ = flags.GetString("api-key")
	}
	if flags.Changed("model") {
		cfg.Server.Model, _ = flags.GetString("model")
	}
	if flags.Changed("system-prompt") {
		cfg.Translation.SystemPrompt, _ = flags.GetString("system-prompt")
	}
	if flags.Changed("temperature") {
		cfg.Translation.Temperature, _ = flags.GetFloat64("temperature")
	}
	if flags.Changed("batch-size") {
		cfg.Translation.BatchSize, _ = flags.GetInt("batch-size")
	}
	if flags.Changed("concurrency") {
		cfg.Run.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("batch-concurrency") {
		cfg.Run.BatchConcurrency, _ = flags.GetInt("batch-concurrency")
	}
	if flags.Changed("timeout") {
		d, _ := flags.GetDuration("timeout")
		cfg.Server.Timeout = config.Duration(d)
	}
	if flags.Changed("on-error") {
		cfg.Run.OnError, _ = flags.GetString("on-error")
	}
	if flags.Changed("overlay") {
		cfg.Translation.Overlay, _ = flags.GetBool("overlay")
	}

	if cfg.Paths.Output == "" && cfg.Paths.Input != "" {
		cfg.Paths.Output = cfg.Paths.Input + "-" + cfg.Translation.TargetLanguage
	}
}

func resolveAPIKey(configured string, provider translate.Provider) string {
	if configured != "" {
		return configured
	}
	switch provider {
	case translate.ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case translate.ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case translate.ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	}
	return ""
}
