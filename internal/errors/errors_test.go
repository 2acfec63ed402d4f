package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	cause := errors.New("exit status 128")

	tests := map[string]struct {
		err      error
		expected string
	}{
		"wrap": {
			err:      Wrap(cause, "commit log store"),
			expected: "commit log store: exit status 128",
		},
		"wrapf": {
			err:      Wrapf(cause, "write %s", "log-2026-10-15.md"),
			expected: "write log-2026-10-15.md: exit status 128",
		},
		"sentinel": {
			err:      Wrapf(ErrInvalidBranchName, "%q", "-D"),
			expected: `"-D": invalid branch name`,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
			assert.True(t, errors.Is(tc.err, cause) || errors.Is(tc.err, ErrInvalidBranchName))
		})
	}
}

func TestTypedErrors(t *testing.T) {
	cause := errors.New("boom")

	tests := map[string]struct {
		err      error
		expected string
	}{
		"git error with output": {
			err:      NewGitError("commit", []string{"-m", "msg"}, cause, "nothing to commit"),
			expected: "git commit failed: nothing to commit: boom",
		},
		"git error without output": {
			err:      NewGitError("log", nil, cause, ""),
			expected: "git log failed: boom",
		},
		"lock error with pid": {
			err:      NewLockError("/tmp/scribe.lock", 1234, cause),
			expected: "lock error with file /tmp/scribe.lock (PID: 1234): boom",
		},
		"lock error without pid": {
			err:      NewLockError("/tmp/scribe.lock", 0, cause),
			expected: "lock error with file /tmp/scribe.lock: boom",
		},
		"config error with value": {
			err:      NewConfigError("interval", 0, cause),
			expected: "configuration error for interval = 0: boom",
		},
		"config error without value": {
			err:      NewConfigError("workspace", nil, cause),
			expected: "configuration error for workspace: boom",
		},
		"write error": {
			err:      NewWriteError("/tmp/log-2026-10-15.md", cause),
			expected: "failed to write /tmp/log-2026-10-15.md: boom",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
			assert.True(t, errors.Is(tc.err, cause), "typed error should unwrap to its cause")
		})
	}
}

func TestGitErrorWithoutCause(t *testing.T) {
	err := NewGitError("branch", nil, nil, "fatal: not a valid branch name")

	assert.Equal(t, "git branch failed: fatal: not a valid branch name", err.Error())
	assert.NoError(t, err.Unwrap())
}

func TestErrorMatching(t *testing.T) {
	gitErr := NewGitError("status", nil, ErrGitOperationFailed, "")
	wrappedErr := Wrap(gitErr, "operation failed")

	assert.ErrorIs(t, wrappedErr, ErrGitOperationFailed)

	var ge *GitError
	require.ErrorAs(t, wrappedErr, &ge)
	assert.Equal(t, "status", ge.Operation)
}

func TestWriteErrorKeepsPathError(t *testing.T) {
	err := NewWriteError("/read-only/log.md", fs.ErrPermission)

	assert.ErrorIs(t, err, fs.ErrPermission)

	var we *WriteError
	require.ErrorAs(t, Wrap(err, "snapshot"), &we)
	assert.Equal(t, "/read-only/log.md", we.Path)
}

func ExampleNewGitError() {
	err := NewGitError("checkout", []string{"abc123"}, fmt.Errorf("exit status 1"), "")

	fmt.Println(err)
	// Output: git checkout failed: exit status 1
}

func ExampleNewConfigError() {
	err := NewConfigError("interval", -1, fmt.Errorf("must be positive"))

	fmt.Println(err)
	// Output: configuration error for interval = -1: must be positive
}
