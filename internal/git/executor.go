package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	scribeErrors "github.com/bashhack/scribe/internal/errors"
)

// CommandExecutor runs external commands. The log store talks to git only
// through this interface so tests can record invocations instead of
// spawning processes.
type CommandExecutor interface {
	// ExecuteWithContext runs a command and reports whether it succeeded.
	ExecuteWithContext(ctx context.Context, name string, args ...string) error

	// ExecuteWithContextAndOutput runs a command and returns its stdout.
	ExecuteWithContextAndOutput(ctx context.Context, name string, args ...string) (string, error)
}

// ExecExecutor is the default CommandExecutor, delegating to os/exec.
type ExecExecutor struct {
	// Env, when non-empty, is appended to the inherited environment.
	Env []string
}

// NewExecExecutor creates a new ExecExecutor
func NewExecExecutor() *ExecExecutor {
	return &ExecExecutor{}
}

// ExecuteWithContext implements CommandExecutor.
func (e *ExecExecutor) ExecuteWithContext(ctx context.Context, name string, args ...string) error {
	_, err := e.run(ctx, name, args)
	return err
}

// ExecuteWithContextAndOutput implements CommandExecutor.
func (e *ExecExecutor) ExecuteWithContextAndOutput(ctx context.Context, name string, args ...string) (string, error) {
	return e.run(ctx, name, args)
}

func (e *ExecExecutor) run(ctx context.Context, name string, args []string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if len(e.Env) > 0 {
		cmd.Env = append(cmd.Environ(), e.Env...)
	}

	if err := cmd.Run(); err != nil {
		// Keep the *exec.ExitError reachable so callers can inspect exit codes.
		wrapped := fmt.Errorf("%w: %w", scribeErrors.ErrGitOperationFailed, err)
		return "", scribeErrors.NewGitError(subcommand(args), args, wrapped, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// subcommand picks the git verb out of an argument list, skipping the
// global -C and -c options that precede it.
func subcommand(args []string) string {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-C", "-c":
			i++
		default:
			return args[i]
		}
	}
	return ""
}
