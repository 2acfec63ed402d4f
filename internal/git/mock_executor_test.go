package git

import (
	"context"
	"strings"
	"sync"

	scribeErrors "github.com/bashhack/scribe/internal/errors"
)

// MockCommandExecutor records git invocations instead of running them.
// Outputs and Errors are keyed by git subcommand.
type MockCommandExecutor struct {
	mu       sync.Mutex
	Commands [][]string
	Outputs  map[string]string
	Errors   map[string]error
}

func NewMockCommandExecutor() *MockCommandExecutor {
	return &MockCommandExecutor{
		Outputs: make(map[string]string),
		Errors:  make(map[string]error),
	}
}

func (m *MockCommandExecutor) ExecuteWithContext(ctx context.Context, name string, args ...string) error {
	_, err := m.ExecuteWithContextAndOutput(ctx, name, args...)
	return err
}

func (m *MockCommandExecutor) ExecuteWithContextAndOutput(_ context.Context, name string, args ...string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Commands = append(m.Commands, append([]string{name}, args...))

	verb := subcommand(args)
	if err, ok := m.Errors[verb]; ok {
		return "", scribeErrors.NewGitError(verb, args, scribeErrors.Wrap(scribeErrors.ErrGitOperationFailed, err.Error()), "")
	}
	return m.Outputs[verb], nil
}

// Verbs returns the git subcommands in invocation order.
func (m *MockCommandExecutor) Verbs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	verbs := make([]string, 0, len(m.Commands))
	for _, cmd := range m.Commands {
		verbs = append(verbs, subcommand(cmd[1:]))
	}
	return verbs
}

// Last returns the most recent invocation joined with spaces.
func (m *MockCommandExecutor) Last() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Commands) == 0 {
		return ""
	}
	return strings.Join(m.Commands[len(m.Commands)-1], " ")
}
