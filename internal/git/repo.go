package git

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

// fieldSep separates fields in formatted git log output.
const fieldSep = "\x1f"

// Commit is one entry of the log store history.
type Commit struct {
	Hash    string
	Date    string
	Time    time.Time
	Subject string
}

// String renders the commit the way restore and diff list it.
func (c Commit) String() string {
	return fmt.Sprintf("%s %s | %s", c.Hash, c.Date, c.Subject)
}

// Repo is the log store repository: a directory of markdown logs versioned
// by the git binary.
type Repo struct {
	root        string
	executor    CommandExecutor
	logger      logger.Logger
	authorName  string
	authorEmail string
}

// Option customizes a Repo.
type Option func(*Repo)

// WithExecutor replaces the os/exec based executor.
func WithExecutor(executor CommandExecutor) Option {
	return func(r *Repo) {
		r.executor = executor
	}
}

// WithIdentity sets the author used for commits. Empty values defer to the
// user's git configuration.
func WithIdentity(name, email string) Option {
	return func(r *Repo) {
		r.authorName = name
		r.authorEmail = email
	}
}

// NewRepo returns a Repo rooted at root.
func NewRepo(root string, log logger.Logger, opts ...Option) *Repo {
	r := &Repo{
		root:     root,
		executor: NewExecExecutor(),
		logger:   log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the log store directory.
func (r *Repo) Root() string {
	return r.root
}

// IsInitialized reports whether the root already holds git metadata.
func (r *Repo) IsInitialized() bool {
	_, err := os.Stat(filepath.Join(r.root, ".git"))
	return err == nil
}

// EnsureInitialized creates the root directory and runs git init, but only
// when no .git entry exists yet. Calling it again is a no-op.
func (r *Repo) EnsureInitialized(ctx context.Context) error {
	if err := os.MkdirAll(r.root, 0o755); err != nil {
		return scribeErrors.NewWriteError(r.root, err)
	}

	if r.IsInitialized() {
		r.logger.Info("Log store %s already initialized", r.root)
		return nil
	}

	if err := r.run(ctx, "init"); err != nil {
		return err
	}

	r.logger.Info("Initialized log store repository in %s", r.root)
	return nil
}

// HasChanges reports whether the working tree differs from HEAD.
func (r *Repo) HasChanges(ctx context.Context) (bool, error) {
	output, err := r.output(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(output) != "", nil
}

// HasCommits reports whether the repository has at least one commit.
func (r *Repo) HasCommits(ctx context.Context) (bool, error) {
	output, err := r.output(ctx, "rev-list", "-n", "1", "--all")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(output) != "", nil
}

// CommitAll stages everything in the log store and commits it. When there
// is nothing to commit it returns false without touching the history.
func (r *Repo) CommitAll(ctx context.Context, message string) (bool, error) {
	hasChanges, err := r.HasChanges(ctx)
	if err != nil {
		return false, err
	}
	if !hasChanges {
		r.logger.Info("No changes to commit for %q", message)
		return false, nil
	}

	if err := r.run(ctx, "add", "-A"); err != nil {
		return false, err
	}

	if err := r.run(ctx, "commit", "-m", message); err != nil {
		return false, err
	}

	r.logger.Info("Committed %q", message)
	return true, nil
}

// Subjects returns the subjects of commits made in [since, until], newest
// first. An empty repository yields no subjects.
func (r *Repo) Subjects(ctx context.Context, since, until time.Time) ([]string, error) {
	hasCommits, err := r.HasCommits(ctx)
	if err != nil {
		return nil, err
	}
	if !hasCommits {
		return nil, nil
	}

	output, err := r.output(ctx, "log",
		"--since="+since.Format(time.RFC3339),
		"--until="+until.Format(time.RFC3339),
		"--pretty=format:%s")
	if err != nil {
		return nil, err
	}

	return splitLines(output), nil
}

// Log returns up to limit commits, newest first. A limit of zero or less
// returns the whole history.
func (r *Repo) Log(ctx context.Context, limit int) ([]Commit, error) {
	hasCommits, err := r.HasCommits(ctx)
	if err != nil {
		return nil, err
	}
	if !hasCommits {
		return nil, nil
	}

	args := []string{"log", "--date=short", "--pretty=format:%h" + fieldSep + "%ad" + fieldSep + "%aI" + fieldSep + "%s"}
	if limit > 0 {
		args = append(args, fmt.Sprintf("-n%d", limit))
	}

	output, err := r.output(ctx, args...)
	if err != nil {
		return nil, err
	}

	var commits []Commit
	for _, line := range splitLines(output) {
		fields := strings.SplitN(line, fieldSep, 4)
		if len(fields) != 4 {
			r.logger.Warning("Skipping unparseable log line %q", line)
			continue
		}
		when, err := time.Parse(time.RFC3339, fields[2])
		if err != nil {
			r.logger.Warning("Bad commit date %q: %v", fields[2], err)
		}
		commits = append(commits, Commit{
			Hash:    fields[0],
			Date:    fields[1],
			Time:    when,
			Subject: fields[3],
		})
	}
	return commits, nil
}

// ShowStat returns the `git show --stat` summary of a commit.
func (r *Repo) ShowStat(ctx context.Context, hash string) (string, error) {
	return r.output(ctx, "show", "--stat", hash)
}

// Diff returns the diff between two commits.
func (r *Repo) Diff(ctx context.Context, from, to string) (string, error) {
	return r.output(ctx, "diff", from, to)
}

// Checkout restores the working tree to the given commit.
func (r *Repo) Checkout(ctx context.Context, hash string) error {
	return r.run(ctx, "checkout", hash)
}

// CreateBranch creates a branch pointing at the given commit. The name is
// checked with `git check-ref-format --branch` first, and names starting
// with "-" are refused so they are never parsed as options.
func (r *Repo) CreateBranch(ctx context.Context, name, hash string) error {
	if name == "" || strings.HasPrefix(name, "-") {
		return scribeErrors.Wrapf(scribeErrors.ErrInvalidBranchName, "%q", name)
	}
	if err := r.run(ctx, "check-ref-format", "--branch", name); err != nil {
		return fmt.Errorf("%w: %q: %w", scribeErrors.ErrInvalidBranchName, name, err)
	}
	return r.run(ctx, "branch", name, hash)
}

// run executes a git command in the log store.
func (r *Repo) run(ctx context.Context, args ...string) error {
	return r.executor.ExecuteWithContext(ctx, "git", r.args(args)...)
}

// output executes a git command in the log store and returns its output.
func (r *Repo) output(ctx context.Context, args ...string) (string, error) {
	return r.executor.ExecuteWithContextAndOutput(ctx, "git", r.args(args)...)
}

func (r *Repo) args(args []string) []string {
	all := []string{"-C", r.root}
	if r.authorName != "" {
		all = append(all, "-c", "user.name="+r.authorName)
	}
	if r.authorEmail != "" {
		all = append(all, "-c", "user.email="+r.authorEmail)
	}
	return append(all, args...)
}

func splitLines(output string) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
