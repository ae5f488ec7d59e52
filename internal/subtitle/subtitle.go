package subtitle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// represents a single subtitle cue
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// represents a complete subtitle track
type Subtitle struct {
	Entries  []Entry
	Language string
	Format   string
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// parsed subtitle file whose text can be replaced in place
type File interface {
	Format() Format
	Subtitle() *Subtitle
	SetText(index int, text string) error
	Write(path string) error
}

// Open parses a subtitle file, dispatching on the file extension.
func Open(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subtitle file: %w", err)
	}
	defer f.Close()

	return OpenReader(f, GetFormatFromExtension(path))
}

// OpenReader parses subtitle content in the given format.
func OpenReader(r io.Reader, format Format) (File, error) {
	switch format {
	case FormatSRT:
		entries, err := ParseSRT(r)
		if err != nil {
			return nil, err
		}
		return &SRTFile{entries: entries}, nil
	case FormatVTT:
		entries, err := ParseVTT(r)
		if err != nil {
			return nil, err
		}
		return &VTTFile{entries: entries}, nil
	default:
		return nil, fmt.Errorf("unsupported subtitle format: %s", format)
	}
}

// subtitle format based on file extension
func GetFormatFromExtension(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".vtt":
		return FormatVTT
	default:
		return FormatSRT
	}
}

// IsSubtitlePath reports whether the path has a supported subtitle extension.
func IsSubtitlePath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".srt" || ext == ".vtt"
}
