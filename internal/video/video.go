package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// defines interface for pulling subtitle tracks out of media containers
type Extractor interface {
	// extracts one subtitle stream to a standalone subtitle file
	ExtractSubtitles(
		ctx context.Context,
		videoPath, outputPath string,
		opts ExtractOptions,
	) error
}

// holds options for subtitle extraction
type ExtractOptions struct {
	StreamIndex int // which subtitle stream to pull (0 = first)
}

// default implementation using ffmpeg
type DefaultExtractor struct{}

func NewExtractor() *DefaultExtractor {
	return &DefaultExtractor{}
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".webm": true,
	".m4v":  true,
	".ts":   true,
}

// IsVideoFile reports whether the path looks like a video container.
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// extracts a subtitle stream from a video container; ffmpeg converts between
// text subtitle formats based on the output extension
func (e *DefaultExtractor) ExtractSubtitles(
	ctx context.Context,
	videoPath, outputPath string,
	opts ExtractOptions,
) error {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return fmt.Errorf("video file not found: %s", videoPath)
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	kwargs := ffmpeg.KwArgs{
		"map": fmt.Sprintf("0:s:%d", opts.StreamIndex),
	}

	err := ffmpeg.Input(videoPath).
		Output(outputPath, kwargs).
		OverWriteOutput().
		Run()

	if err != nil {
		return fmt.Errorf("ffmpeg subtitle extraction failed: %w", err)
	}

	return nil
}
