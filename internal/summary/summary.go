// Package summary builds daily and weekly digests of the log store history.
package summary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	scribeErrors "github.com/bashhack/scribe/internal/errors"
	"github.com/bashhack/scribe/internal/logger"
)

// Kind selects a summary cadence.
type Kind string

const (
	Daily  Kind = "daily"
	Weekly Kind = "weekly"
)

// ParseKind accepts "daily" or "weekly".
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	}
	return "", scribeErrors.Wrapf(scribeErrors.ErrInvalidFlag, "unknown summary kind %q (want daily or weekly)", s)
}

// Window is the stretch of history a summary covers.
type Window struct {
	Kind  Kind
	Day   string
	Since time.Time
	Until time.Time
	Label string
}

// DailyWindow covers the whole calendar day before now's day. It is keyed
// by now's day, the day on whose midnight it fires.
func DailyWindow(now time.Time) Window {
	today := Midnight(now)
	return Window{
		Kind:  Daily,
		Day:   DayKey(today),
		Since: today.AddDate(0, 0, -1),
		Until: today,
		Label: "since yesterday midnight",
	}
}

// WeeklyWindow covers the seven days up to now, keyed by the Sunday of
// boundary.
func WeeklyWindow(boundary, now time.Time) Window {
	return Window{
		Kind:  Weekly,
		Day:   DayKey(boundary),
		Since: now.AddDate(0, 0, -7),
		Until: now,
		Label: "last 7 days",
	}
}

// FileName is the summary document name inside the log store.
func (w Window) FileName() string {
	return fmt.Sprintf("%s-summary-%s.md", w.Kind, w.Day)
}

// CommitMessage is the message used when committing the summary.
func (w Window) CommitMessage() string {
	if w.Kind == Weekly {
		return "Weekly summary ending " + w.Day
	}
	return "Daily summary for " + w.Day
}

// Render formats a summary document: a heading, then one bullet per commit
// subject. An empty window renders the heading alone.
func Render(w Window, subjects []string) string {
	var b strings.Builder

	if w.Kind == Weekly {
		fmt.Fprintf(&b, "# Weekly Summary (week ending %s, %s)\n", w.Day, w.Label)
	} else {
		fmt.Fprintf(&b, "# Daily Summary (%s, %s)\n", w.Day, w.Label)
	}

	if len(subjects) == 0 {
		return b.String()
	}

	b.WriteString("\n")
	for _, subject := range subjects {
		fmt.Fprintf(&b, "- %s\n", subject)
	}
	return b.String()
}

// History lists commit subjects in a time range.
type History interface {
	Subjects(ctx context.Context, since, until time.Time) ([]string, error)
}

// Committer commits the log store.
type Committer interface {
	CommitAll(ctx context.Context, message string) (bool, error)
}

// Generator writes and commits summary documents.
type Generator struct {
	root      string
	history   History
	committer Committer
	logger    logger.Logger
}

// NewGenerator returns a Generator for the log store at root. The same
// repository usually serves as both history and committer.
func NewGenerator(root string, history History, committer Committer, log logger.Logger) *Generator {
	return &Generator{
		root:      root,
		history:   history,
		committer: committer,
		logger:    log,
	}
}

// Write renders the summary for w and writes it, replacing any earlier
// summary for the same day. It returns the file path.
func (g *Generator) Write(ctx context.Context, w Window) (string, error) {
	subjects, err := g.history.Subjects(ctx, w.Since, w.Until)
	if err != nil {
		return "", scribeErrors.Wrapf(err, "failed to read history for %s summary", w.Kind)
	}

	path := filepath.Join(g.root, w.FileName())
	if err := os.WriteFile(path, []byte(Render(w, subjects)), 0o644); err != nil {
		return path, scribeErrors.NewWriteError(path, err)
	}

	g.logger.Info("Wrote %s summary with %d entries to %s", w.Kind, len(subjects), path)
	return path, nil
}

// Generate writes the summary for w and commits it.
func (g *Generator) Generate(ctx context.Context, w Window) (string, error) {
	path, err := g.Write(ctx, w)
	if err != nil {
		return path, err
	}

	if _, err := g.committer.CommitAll(ctx, w.CommitMessage()); err != nil {
		return path, err
	}

	g.logger.Success("Generated %s summary: %s", w.Kind, filepath.Base(path))
	return path, nil
}
