package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PocketMiner82/LLMSRTTranslator/internal/video"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [video_file]",
	Short: "Extract a subtitle track from a video file",
	Long: `Extract an embedded subtitle stream from a video container using ffmpeg.
The output extension decides the subtitle format.

Examples:
  llmsrt extract movie.mkv
  llmsrt extract movie.mkv -o movie.srt
  llmsrt extract movie.mkv --stream 1 -o movie.vtt`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().
		Int("stream", 0, "Subtitle stream index to extract (0 = first)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	if !video.IsVideoFile(videoPath) {
		return fmt.Errorf("unsupported video format: %s", filepath.Ext(videoPath))
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		ext := filepath.Ext(videoPath)
		outputPath = strings.TrimSuffix(videoPath, ext) + ".srt"
	}
	streamIndex, _ := cmd.Flags().GetInt("stream")

	logger.Infow("extracting subtitles",
		"video", videoPath,
		"stream", streamIndex,
		"output", outputPath,
	)

	extractor := video.NewExtractor()
	err := extractor.ExtractSubtitles(cmd.Context(), videoPath, outputPath,
		video.ExtractOptions{StreamIndex: streamIndex})
	if err != nil {
		return err
	}

	fmt.Printf("Subtitles extracted to: %s\n", outputPath)
	return nil
}
