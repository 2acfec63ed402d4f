// Package snapshot renders drained edit counts into the per-day activity log.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	scribeErrors "github.com/bashhack/scribe/internal/errors"
)

// NoActivityMarker appears in every section written for an empty interval.
const NoActivityMarker = "no activity"

// DayLayout formats the calendar day used in file names and summary keys.
const DayLayout = "2006-01-02"

// timestampLayout is the human-readable section header.
const timestampLayout = "1/2/2006, 3:04:05 PM"

// LogFileName returns the name of the log file for the local day of t.
func LogFileName(t time.Time) string {
	return fmt.Sprintf("log-%s.md", t.Format(DayLayout))
}

// Render formats one log section. Paths are listed in sorted order.
func Render(counts map[string]int, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### %s\n\n", now.Format(timestampLayout))

	if len(counts) == 0 {
		fmt.Fprintf(&b, "- %s detected.\n\n", NoActivityMarker)
		return b.String()
	}

	paths := make([]string, 0, len(counts))
	for path := range counts {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		fmt.Fprintf(&b, "- Edited: %s (%d times)\n", path, counts[path])
	}
	b.WriteString("\n")

	return b.String()
}

// Writer appends sections to the day's log file in the log store.
type Writer struct {
	root string
}

// NewWriter returns a Writer for the log store at root.
func NewWriter(root string) *Writer {
	return &Writer{root: root}
}

// Append renders counts and appends them to the log file for now's day,
// creating it if needed. The data is synced to disk before Append returns,
// so a commit issued afterwards always sees it.
func (w *Writer) Append(counts map[string]int, now time.Time) (string, error) {
	path := filepath.Join(w.root, LogFileName(now))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return path, scribeErrors.NewWriteError(path, err)
	}

	if _, err := f.WriteString(Render(counts, now)); err != nil {
		_ = f.Close()
		return path, scribeErrors.NewWriteError(path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return path, scribeErrors.NewWriteError(path, err)
	}
	if err := f.Close(); err != nil {
		return path, scribeErrors.NewWriteError(path, err)
	}

	return path, nil
}
