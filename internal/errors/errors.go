// Package errors provides the error taxonomy shared by scribe's packages.
//
// Sentinels are matched with Is; the typed errors (GitError, LockError,
// ConfigError, WriteError) carry the context a user needs to act on a
// failure and unwrap to the underlying cause.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels. Callers match them with errors.Is.
var (
	// ErrNoWorkspace means scribe was started without a usable workspace directory.
	ErrNoWorkspace = errors.New("no workspace folder available")

	// ErrLockAcquisitionFailure means the lock file could not be opened or locked.
	ErrLockAcquisitionFailure = errors.New("failed to acquire lock")

	// ErrAlreadyRunning means another scribe process holds the log store lock.
	ErrAlreadyRunning = errors.New("another scribe instance is already running for this log store")

	// ErrGitOperationFailed wraps every non-zero git exit.
	ErrGitOperationFailed = errors.New("git operation failed")

	// ErrInvalidConfiguration covers config values Finalize refuses.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidFlag means a command argument was not one of the accepted values.
	ErrInvalidFlag = errors.New("invalid flag")

	// ErrQueueClosed is the result of a task submitted after the git queue closed.
	ErrQueueClosed = errors.New("task queue closed")

	// ErrQueueFull is the result of a task dropped by a saturated git queue.
	ErrQueueFull = errors.New("task queue full")

	// ErrInvalidBranchName means git would reject the name, or read it as an option.
	ErrInvalidBranchName = errors.New("invalid branch name")
)

// Wrap prefixes err with message, keeping it matchable.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// GitError is a failed git invocation. Output is git's stderr, usually the
// only part worth showing.
type GitError struct {
	Operation string
	Args      []string
	Err       error
	Output    string
}

func (e *GitError) Error() string {
	var b strings.Builder
	b.WriteString("git " + e.Operation + " failed")
	for _, part := range []string{e.Output, errString(e.Err)} {
		if part != "" {
			b.WriteString(": " + part)
		}
	}
	return b.String()
}

func (e *GitError) Unwrap() error { return e.Err }

func NewGitError(operation string, args []string, err error, output string) *GitError {
	return &GitError{Operation: operation, Args: args, Err: err, Output: output}
}

// LockError reports the lock file involved and, when known, the PID that
// holds it.
type LockError struct {
	LockFile string
	PID      int
	Err      error
}

func (e *LockError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("lock error with file %s (PID: %d): %v", e.LockFile, e.PID, e.Err)
	}
	return fmt.Sprintf("lock error with file %s: %v", e.LockFile, e.Err)
}

func (e *LockError) Unwrap() error { return e.Err }

func NewLockError(lockFile string, pid int, err error) *LockError {
	return &LockError{LockFile: lockFile, PID: pid, Err: err}
}

// ConfigError names the setting that failed validation. Value is nil when
// the setting was missing.
type ConfigError struct {
	Parameter string
	Value     any
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("configuration error for %s = %v: %v", e.Parameter, e.Value, e.Err)
	}
	return fmt.Sprintf("configuration error for %s: %v", e.Parameter, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func NewConfigError(parameter string, value any, err error) *ConfigError {
	return &ConfigError{Parameter: parameter, Value: value, Err: err}
}

// WriteError is a failed write of a log store document (an activity log or
// a summary).
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func NewWriteError(path string, err error) *WriteError {
	return &WriteError{Path: path, Err: err}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
