package history

import (
	"context"
	"fmt"

	"github.com/bashhack/scribe/internal/git"
)

type fakeRepo struct {
	commits []git.Commit
	logErr  error
	stat    string
	diff    string
	diffErr error

	limits     []int
	checkedOut string
	branch     [2]string
	diffed     [2]string
}

func (f *fakeRepo) Log(_ context.Context, limit int) ([]git.Commit, error) {
	f.limits = append(f.limits, limit)
	if f.logErr != nil {
		return nil, f.logErr
	}
	if limit > 0 && limit < len(f.commits) {
		return f.commits[:limit], nil
	}
	return f.commits, nil
}

func (f *fakeRepo) ShowStat(_ context.Context, hash string) (string, error) {
	return f.stat, nil
}

func (f *fakeRepo) Diff(_ context.Context, from, to string) (string, error) {
	f.diffed = [2]string{from, to}
	return f.diff, f.diffErr
}

func (f *fakeRepo) Checkout(_ context.Context, hash string) error {
	f.checkedOut = hash
	return nil
}

func (f *fakeRepo) CreateBranch(_ context.Context, name, hash string) error {
	f.branch = [2]string{name, hash}
	return nil
}

// scriptedInteractor answers prompts from fixed lists. A nil pick cancels.
type scriptedInteractor struct {
	choices []*int
	many    []int
	manyOK  bool
	input   string

	prompts []string
}

func (s *scriptedInteractor) Choose(prompt string, options []string) (int, bool) {
	s.prompts = append(s.prompts, prompt)
	if len(s.choices) == 0 {
		return 0, false
	}
	next := s.choices[0]
	s.choices = s.choices[1:]
	if next == nil {
		return 0, false
	}
	return *next, true
}

func (s *scriptedInteractor) ChooseMany(prompt string, options []string) ([]int, bool) {
	s.prompts = append(s.prompts, prompt)
	return s.many, s.manyOK
}

func (s *scriptedInteractor) Input(prompt string) (string, bool) {
	s.prompts = append(s.prompts, prompt)
	return s.input, s.input != ""
}

func pick(i int) *int {
	return &i
}

func commits(n int) []git.Commit {
	out := make([]git.Commit, n)
	for i := range out {
		out[i] = git.Commit{
			Hash:    fmt.Sprintf("c%d", i),
			Date:    "2026-10-15",
			Subject: fmt.Sprintf("Log at 2026-10-15T10-%02d-00", 59-i),
		}
	}
	return out
}
