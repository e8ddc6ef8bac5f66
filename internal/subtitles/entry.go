package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/asticode/go-astisub"

	"github.com/Microck/FrameScribe/internal/timecode"
)

// Entry is one timed caption.
type Entry struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// ParseSRT reads SRT cues in file order.
func ParseSRT(r io.Reader) ([]Entry, error) {
	subs, err := astisub.ReadFromSRT(r)
	if err != nil {
		return nil, fmt.Errorf("parse srt: %w", err)
	}
	return fromAstisub(subs), nil
}

// WriteSRT renders entries with sequential indexes starting at 1.
func WriteSRT(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for i, entry := range entries {
		if i > 0 {
			bw.WriteByte('\n')
		}
		bw.WriteString(strconv.Itoa(i + 1))
		bw.WriteByte('\n')
		bw.WriteString(timecode.SRT(entry.Start))
		bw.WriteString(" --> ")
		bw.WriteString(timecode.SRT(entry.End))
		bw.WriteByte('\n')
		bw.WriteString(entry.Text)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func fromAstisub(subs *astisub.Subtitles) []Entry {
	if subs == nil {
		return nil
	}
	entries := make([]Entry, 0, len(subs.Items))
	for _, item := range subs.Items {
		if item == nil {
			continue
		}
		text := itemText(item)
		if text == "" {
			continue
		}
		entries = append(entries, Entry{
			Index: len(entries) + 1,
			Start: item.StartAt,
			End:   item.EndAt,
			Text:  text,
		})
	}
	return entries
}

func itemText(item *astisub.Item) string {
	lines := make([]string, 0, len(item.Lines))
	for _, line := range item.Lines {
		if text := strings.TrimSpace(line.String()); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}
