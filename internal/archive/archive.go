package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/PocketMiner82/LLMSRTTranslator/internal/subtitle"
)

// matches season/episode markers like S01E02, s1.e2, 1x02
var (
	seasonEpisodeRegex = regexp.MustCompile(`(?i)s(\d{1,2})\s*[._\- ]?\s*e(\d{1,2})`)
	crossFormatRegex   = regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{2})\b`)
)

// Result describes one processed archive.
type Result struct {
	Extracted      []string
	ArchiveMovedTo string
	SkippedEntries int
}

// Unpack extracts the subtitle files from a zip archive into destDir,
// renaming each by its detected S<NN>E<NN> pattern where one exists, and
// moves the processed archive into processedDir. Pure file management, no
// translation logic.
func Unpack(zipPath, destDir, processedDir string) (*Result, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	result := &Result{}
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}

		// directory structure inside the archive is flattened
		base := filepath.Base(file.Name)
		if !subtitle.IsSubtitlePath(base) {
			result.SkippedEntries++
			continue
		}

		outName := renameBySeasonEpisode(base)
		outPath := filepath.Join(destDir, outName)

		if err := extractEntry(file, outPath); err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", file.Name, err)
		}
		result.Extracted = append(result.Extracted, outPath)
	}

	if processedDir != "" {
		if err := os.MkdirAll(processedDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create processed directory: %w", err)
		}
		movedTo := filepath.Join(processedDir, filepath.Base(zipPath))
		if err := os.Rename(zipPath, movedTo); err != nil {
			return nil, fmt.Errorf("failed to relocate archive: %w", err)
		}
		result.ArchiveMovedTo = movedTo
	}

	return result, nil
}

func extractEntry(file *zip.File, outPath string) error {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// renameBySeasonEpisode normalizes a filename to S<NN>E<NN>.<ext> when a
// season/episode marker is present; otherwise the name passes through.
func renameBySeasonEpisode(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	season, episode, ok := detectSeasonEpisode(stem)
	if !ok {
		return name
	}
	return fmt.Sprintf("S%02dE%02d%s", season, episode, ext)
}

func detectSeasonEpisode(stem string) (season, episode int, ok bool) {
	if matches := seasonEpisodeRegex.FindStringSubmatch(stem); len(matches) == 3 {
		season, _ = strconv.Atoi(matches[1])
		episode, _ = strconv.Atoi(matches[2])
		return season, episode, true
	}
	if matches := crossFormatRegex.FindStringSubmatch(stem); len(matches) == 3 {
		season, _ = strconv.Atoi(matches[1])
		episode, _ = strconv.Atoi(matches[2])
		return season, episode, true
	}
	return 0, 0, false
}
