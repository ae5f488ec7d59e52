package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// in-memory WebVTT file
type VTTFile struct {
	entries []Entry
}

var (
	vttTimestampRegex = regexp.MustCompile(
		`^(\d{2}):(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})\.(\d{3})`,
	)
	vttShortTimestampRegex = regexp.MustCompile(
		`^(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2})\.(\d{3})`,
	)
)

// ParseVTT parses WebVTT content into cues in file order. Cue identifiers are
// optional in VTT, so blocks are keyed off the timestamp line; NOTE and STYLE
// blocks are skipped.
func ParseVTT(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []Entry
	var currentEntry *Entry
	var textLines []string
	lineNum := 0
	headerSeen := false
	entryIndex := 0

	flush := func() {
		if currentEntry != nil {
			currentEntry.Text = strings.Join(textLines, "\n")
			entries = append(entries, *currentEntry)
		}
		currentEntry = nil
		textLines = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		trimmed := strings.TrimSpace(line)

		if !headerSeen {
			if !strings.HasPrefix(trimmed, "WEBVTT") {
				return nil, &FormatError{Line: lineNum, Msg: "missing WEBVTT header"}
			}
			headerSeen = true
			continue
		}

		if strings.HasPrefix(trimmed, "NOTE") || strings.HasPrefix(trimmed, "STYLE") {
			for scanner.Scan() {
				lineNum++
				if strings.TrimSpace(scanner.Text()) == "" {
					break
				}
			}
			continue
		}

		if trimmed == "" {
			flush()
			continue
		}

		start, end, ok, err := parseVTTTimestampLine(trimmed, lineNum)
		if err != nil {
			return nil, err
		}
		if ok {
			flush()
			entryIndex++
			currentEntry = &Entry{
				Index:     entryIndex,
				StartTime: start,
				EndTime:   end,
			}
			continue
		}

		if currentEntry != nil {
			textLines = append(textLines, line)
		}
		// otherwise: optional cue identifier line, dropped
	}

	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading VTT input: %w", err)
	}

	return entries, nil
}

func parseVTTTimestampLine(line string, lineNum int) (start, end time.Duration, ok bool, err error) {
	if matches := vttTimestampRegex.FindStringSubmatch(line); len(matches) == 9 {
		start, err = parseClockTime(matches[1], matches[2], matches[3], matches[4])
		if err != nil {
			return 0, 0, false, &FormatError{Line: lineNum, Msg: "invalid start timestamp"}
		}
		end, err = parseClockTime(matches[5], matches[6], matches[7], matches[8])
		if err != nil {
			return 0, 0, false, &FormatError{Line: lineNum, Msg: "invalid end timestamp"}
		}
		if end < start {
			return 0, 0, false, &FormatError{
				Line: lineNum,
				Msg:  "end timestamp precedes start timestamp",
			}
		}
		return start, end, true, nil
	}

	if matches := vttShortTimestampRegex.FindStringSubmatch(line); len(matches) == 7 {
		start, err = parseClockTime("00", matches[1], matches[2], matches[3])
		if err != nil {
			return 0, 0, false, &FormatError{Line: lineNum, Msg: "invalid start timestamp"}
		}
		end, err = parseClockTime("00", matches[4], matches[5], matches[6])
		if err != nil {
			return 0, 0, false, &FormatError{Line: lineNum, Msg: "invalid end timestamp"}
		}
		if end < start {
			return 0, 0, false, &FormatError{
				Line: lineNum,
				Msg:  "end timestamp precedes start timestamp",
			}
		}
		return start, end, true, nil
	}

	return 0, 0, false, nil
}

func (f *VTTFile) Format() Format {
	return FormatVTT
}

func (f *VTTFile) Subtitle() *Subtitle {
	return &Subtitle{
		Entries: f.entries,
		Format:  string(FormatVTT),
	}
}

func (f *VTTFile) SetText(index int, text string) error {
	if index < 0 || index >= len(f.entries) {
		return fmt.Errorf(
			"index %d out of range (0-%d)",
			index,
			len(f.entries)-1,
		)
	}
	f.entries[index].Text = text
	return nil
}

func (f *VTTFile) Write(path string) error {
	writer, err := NewWriter(FormatVTT)
	if err != nil {
		return err
	}
	return writer.Write(f.Subtitle(), path)
}
