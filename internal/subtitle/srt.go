package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FormatError reports malformed subtitle input. Parsing stops at the first
// malformed block; a file that fails to parse is never partially translated.
type FormatError struct {
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed subtitle at line %d: %s", e.Line, e.Msg)
}

// in-memory SRT file
type SRTFile struct {
	entries []Entry
}

var srtTimestampRegex = regexp.MustCompile(
	`^(\d{2}):(\d{2}):(\d{2}),(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2}),(\d{3})\s*$`,
)

// ParseSRT parses SRT content into cues in file order.
//
// Each block must carry an index line and a timestamp line; anything else is a
// *FormatError. Blank-line runs between blocks, trailing whitespace and a UTF-8
// BOM are tolerated. Original indices are preserved on the parsed entries;
// serialization renumbers 1..N.
func ParseSRT(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []Entry
	var currentEntry *Entry
	var textLines []string
	sawTimestamp := false
	lineNum := 0

	flush := func() {
		currentEntry.Text = strings.Join(textLines, "\n")
		entries = append(entries, *currentEntry)
		currentEntry = nil
		textLines = nil
		sawTimestamp = false
	}

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if strings.TrimSpace(line) == "" {
			if currentEntry != nil {
				if !sawTimestamp {
					return nil, &FormatError{
						Line: lineNum,
						Msg:  fmt.Sprintf("cue %d has no timestamp line", currentEntry.Index),
					}
				}
				flush()
			}
			continue
		}

		if currentEntry == nil {
			index, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil {
				return nil, &FormatError{
					Line: lineNum,
					Msg:  fmt.Sprintf("expected cue index, got %q", strings.TrimSpace(line)),
				}
			}
			currentEntry = &Entry{Index: index}
			continue
		}

		if !sawTimestamp {
			matches := srtTimestampRegex.FindStringSubmatch(strings.TrimSpace(line))
			if len(matches) != 9 {
				return nil, &FormatError{
					Line: lineNum,
					Msg:  fmt.Sprintf("expected timestamp line, got %q", strings.TrimSpace(line)),
				}
			}
			startTime, err := parseClockTime(matches[1], matches[2], matches[3], matches[4])
			if err != nil {
				return nil, &FormatError{Line: lineNum, Msg: "invalid start timestamp"}
			}
			endTime, err := parseClockTime(matches[5], matches[6], matches[7], matches[8])
			if err != nil {
				return nil, &FormatError{Line: lineNum, Msg: "invalid end timestamp"}
			}
			if endTime < startTime {
				return nil, &FormatError{
					Line: lineNum,
					Msg:  "end timestamp precedes start timestamp",
				}
			}
			currentEntry.StartTime = startTime
			currentEntry.EndTime = endTime
			sawTimestamp = true
			continue
		}

		textLines = append(textLines, line)
	}

	if currentEntry != nil {
		if !sawTimestamp {
			return nil, &FormatError{
				Line: lineNum,
				Msg:  fmt.Sprintf("cue %d has no timestamp line", currentEntry.Index),
			}
		}
		flush()
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading SRT input: %w", err)
	}

	return entries, nil
}

func parseClockTime(hours, minutes, seconds, millis string) (time.Duration, error) {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, err
	}
	ms, err := strconv.Atoi(millis)
	if err != nil {
		return 0, err
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

func (f *SRTFile) Format() Format {
	return FormatSRT
}

func (f *SRTFile) Subtitle() *Subtitle {
	return &Subtitle{
		Entries: f.entries,
		Format:  string(FormatSRT),
	}
}

func (f *SRTFile) SetText(index int, text string) error {
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

func (f *SRTFile) Write(path string) error {
	writer, err := NewWriter(FormatSRT)
	if err != nil {
		return err
	}
	return writer.Write(f.Subtitle(), path)
}
