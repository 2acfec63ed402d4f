package history

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bashhack/scribe/internal/git"
	"github.com/bashhack/scribe/internal/logger"
)

// diffCandidates is how many recent commits the diff picker offers.
const diffCandidates = 5

const (
	actionRestore = "Restore This Snapshot"
	actionBranch  = "Create Branch From This"
)

// Repository is the part of the log store a Browser reads and moves.
type Repository interface {
	Log(ctx context.Context, limit int) ([]git.Commit, error)
	ShowStat(ctx context.Context, hash string) (string, error)
	Diff(ctx context.Context, from, to string) (string, error)
	Checkout(ctx context.Context, hash string) error
	CreateBranch(ctx context.Context, name, hash string) error
}

// Browser implements the interactive history commands.
type Browser struct {
	repo       Repository
	interactor UserInteractor
	logger     logger.Logger
	out        io.Writer
}

// NewBrowser returns a Browser that prints git output to out.
func NewBrowser(repo Repository, interactor UserInteractor, log logger.Logger, out io.Writer) *Browser {
	return &Browser{
		repo:       repo,
		interactor: interactor,
		logger:     log,
		out:        out,
	}
}

// Hello is a liveness check.
func (b *Browser) Hello() {
	b.logger.InfoToUser("Hello from Scribe!")
}

// List returns up to limit commits, newest first. A limit below 1 lists
// everything.
func (b *Browser) List(ctx context.Context, limit int) ([]git.Commit, error) {
	return b.repo.Log(ctx, limit)
}

// Restore lets the user pick a snapshot, shows what it changed, and then
// either checks it out in place or creates a branch at it.
func (b *Browser) Restore(ctx context.Context) error {
	commits, err := b.repo.Log(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(commits) == 0 {
		b.logger.InfoToUser("No snapshots to restore yet.")
		return nil
	}

	picked, ok := b.interactor.Choose("Select a snapshot to inspect", labels(commits))
	if !ok {
		b.logger.InfoToUser("Restore cancelled.")
		return nil
	}
	hash := commits[picked].Hash

	stat, err := b.repo.ShowStat(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", hash, err)
	}
	_, _ = fmt.Fprintf(b.out, "Changes in %s:\n\n%s\n\n", hash, strings.TrimRight(stat, "\n"))

	action, ok := b.interactor.Choose("What would you like to do?", []string{actionRestore, actionBranch})
	if !ok {
		b.logger.InfoToUser("Restore cancelled.")
		return nil
	}

	switch action {
	case 0:
		if err := b.repo.Checkout(ctx, hash); err != nil {
			return fmt.Errorf("failed to restore %s: %w", hash, err)
		}
		b.logger.Success("Restored snapshot at %s", hash)
	case 1:
		name, ok := b.interactor.Input("Enter new branch name")
		if !ok {
			b.logger.InfoToUser("No branch name given, nothing created.")
			return nil
		}
		if err := b.repo.CreateBranch(ctx, name, hash); err != nil {
			return fmt.Errorf("failed to create branch %s: %w", name, err)
		}
		b.logger.Success("Branch '%s' created from %s", name, hash)
	}
	return nil
}

// ShowDiff lets the user pick two of the most recent commits and prints the
// diff from the older pick to the newer one.
func (b *Browser) ShowDiff(ctx context.Context) error {
	commits, err := b.repo.Log(ctx, diffCandidates)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(commits) < 2 {
		b.logger.InfoToUser("Need at least two commits to show a diff.")
		return nil
	}

	picks, ok := b.interactor.ChooseMany("Select two commits to diff", labels(commits))
	if !ok || len(picks) != 2 {
		b.logger.InfoToUser("Please select exactly two commits.")
		return nil
	}

	// The log is newest first, so the larger index is the older commit.
	newer, older := commits[picks[0]], commits[picks[1]]
	if picks[0] > picks[1] {
		newer, older = older, newer
	}

	diff, err := b.repo.Diff(ctx, older.Hash, newer.Hash)
	if err != nil {
		return fmt.Errorf("diff failed: %w", err)
	}
	if strings.TrimSpace(diff) == "" {
		b.logger.InfoToUser("No differences between %s and %s.", older.Hash, newer.Hash)
		return nil
	}
	_, _ = fmt.Fprintln(b.out, strings.TrimRight(diff, "\n"))
	return nil
}

func labels(commits []git.Commit) []string {
	out := make([]string, len(commits))
	for i, c := range commits {
		out[i] = c.String()
	}
	return out
}
