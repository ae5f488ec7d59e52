package cli

import (
	"github.com/PocketMiner82/LLMSRTTranslator/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "llmsrt",
	Short: "Translate subtitle files with a locally hosted language model",
	Long: `llmsrt translates SRT and VTT subtitle files using a language model,
typically one served by a local Ollama instance.

Cues are sent to the model in batches; cue count, order and timestamps are
preserved exactly, only the text changes. OpenAI-compatible servers and the
hosted OpenAI, Anthropic and Gemini APIs are also supported.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output path")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Input language (e.g. English)")
}
