package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/PocketMiner82/LLMSRTTranslator/internal/archive"
	"github.com/spf13/cobra"
)

var unpackCmd = &cobra.Command{
	Use:   "unpack [archive.zip]",
	Short: "Extract subtitle files from a zip archive",
	Long: `Extract the subtitle files from a downloaded zip archive into a
directory, renaming each by its detected S<NN>E<NN> marker so the files sort
cleanly. Non-subtitle entries are skipped and the directory structure inside
the archive is flattened.

With --processed-dir the archive is moved there afterwards, keeping the
download folder clean.

Examples:
  llmsrt unpack subs.zip -o ./subs
  llmsrt unpack subs.zip -o ./subs --processed-dir ./archives`,
	Args: cobra.ExactArgs(1),
	RunE: runUnpack,
}

func init() {
	rootCmd.AddCommand(unpackCmd)

	unpackCmd.Flags().
		String("processed-dir", "", "Move the archive here after unpacking")
}

func runUnpack(cmd *cobra.Command, args []string) error {
	zipPath := args[0]
	if _, err := os.Stat(zipPath); os.IsNotExist(err) {
		return fmt.Errorf("archive not found: %s", zipPath)
	}

	destDir, _ := cmd.Flags().GetString("output")
	if destDir == "" {
		destDir = filepath.Dir(zipPath)
	}
	processedDir, _ := cmd.Flags().GetString("processed-dir")

	logger.Infow("unpacking archive", "archive", zipPath, "dest", destDir)

	result, err := archive.Unpack(zipPath, destDir, processedDir)
	if err != nil {
		return fmt.Errorf("unpack failed: %w", err)
	}

	for _, path := range result.Extracted {
		logger.Infow("extracted", "file", path)
	}
	if result.SkippedEntries > 0 {
		logger.Debugw("skipped non-subtitle entries", "count", result.SkippedEntries)
	}
	if result.ArchiveMovedTo != "" {
		logger.Infow("archive relocated", "to", result.ArchiveMovedTo)
	}

	fmt.Printf("Extracted %d subtitle file(s) to %s\n", len(result.Extracted), destDir)
	return nil
}
