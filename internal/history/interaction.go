package history

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
)

// maxAttempts is how many invalid answers a prompt tolerates before it
// gives up and counts as cancelled.
const maxAttempts = 3

// UserInteractor asks the user to pick from lists and to type values.
// Every method reports false when the user cancels.
type UserInteractor interface {
	// Choose asks for exactly one of options and returns its index.
	Choose(prompt string, options []string) (int, bool)

	// ChooseMany asks for any number of options and returns their indices
	// in the order they were entered.
	ChooseMany(prompt string, options []string) ([]int, bool)

	// Input asks for a free-form value. An empty answer is a cancel.
	Input(prompt string) (string, bool)
}

// lineReader reads one answer after showing prompt.
type lineReader interface {
	ReadLine(prompt string) (string, error)
}

// DefaultInteractor prompts on a terminal with numbered menus.
type DefaultInteractor struct {
	Writer io.Writer
	lines  lineReader
}

// NewDefaultInteractor reads plain lines from r and writes menus to w.
func NewDefaultInteractor(r io.Reader, w io.Writer) *DefaultInteractor {
	return &DefaultInteractor{
		Writer: w,
		lines:  &bufferedLines{reader: bufio.NewReader(r), writer: w},
	}
}

// NewReadlineInteractor uses readline for line editing and history on an
// interactive terminal. Close releases the terminal.
func NewReadlineInteractor(w io.Writer) (*DefaultInteractor, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          w,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize readline: %w", err)
	}
	return &DefaultInteractor{
		Writer: w,
		lines:  &readlineLines{rl: rl},
	}, nil
}

// Close releases the underlying terminal, if any.
func (i *DefaultInteractor) Close() error {
	if c, ok := i.lines.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Choose shows a numbered menu and accepts a single number.
func (i *DefaultInteractor) Choose(prompt string, options []string) (int, bool) {
	if len(options) == 0 {
		return 0, false
	}
	i.menu(prompt, options)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		answer, ok := i.read(fmt.Sprintf("Choose 1-%d (empty to cancel): ", len(options)))
		if !ok {
			return 0, false
		}
		picks, err := parseSelection(answer, len(options))
		if err == nil && len(picks) == 1 {
			return picks[0], true
		}
		_, _ = fmt.Fprintf(i.Writer, "Enter one number between 1 and %d.\n", len(options))
	}
	return 0, false
}

// ChooseMany shows a numbered menu and accepts numbers separated by spaces
// or commas.
func (i *DefaultInteractor) ChooseMany(prompt string, options []string) ([]int, bool) {
	if len(options) == 0 {
		return nil, false
	}
	i.menu(prompt, options)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		answer, ok := i.read("Choose numbers, e.g. 1 3 (empty to cancel): ")
		if !ok {
			return nil, false
		}
		picks, err := parseSelection(answer, len(options))
		if err == nil {
			return picks, true
		}
		_, _ = fmt.Fprintf(i.Writer, "%v\n", err)
	}
	return nil, false
}

// Input reads a single trimmed line.
func (i *DefaultInteractor) Input(prompt string) (string, bool) {
	return i.read(prompt + ": ")
}

func (i *DefaultInteractor) menu(prompt string, options []string) {
	_, _ = fmt.Fprintln(i.Writer, prompt)
	for n, option := range options {
		_, _ = fmt.Fprintf(i.Writer, "  %d) %s\n", n+1, option)
	}
}

// read returns false on EOF, interrupt, an empty answer or "q".
func (i *DefaultInteractor) read(prompt string) (string, bool) {
	line, err := i.lines.ReadLine(prompt)
	if err != nil {
		return "", false
	}
	line = strings.TrimSpace(line)
	if line == "" || strings.EqualFold(line, "q") {
		return "", false
	}
	return line, true
}

// parseSelection turns "1, 3" into zero-based indices. Duplicates are
// ignored.
func parseSelection(answer string, n int) ([]int, error) {
	fields := strings.FieldsFunc(answer, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("no selection")
	}

	seen := make(map[int]bool, len(fields))
	picks := make([]int, 0, len(fields))
	for _, field := range fields {
		num, err := strconv.Atoi(field)
		if err != nil || num < 1 || num > n {
			return nil, fmt.Errorf("%q is not a number between 1 and %d", field, n)
		}
		if seen[num] {
			continue
		}
		seen[num] = true
		picks = append(picks, num-1)
	}
	return picks, nil
}

type bufferedLines struct {
	reader *bufio.Reader
	writer io.Writer
}

func (b *bufferedLines) ReadLine(prompt string) (string, error) {
	_, _ = fmt.Fprint(b.writer, prompt)
	line, err := b.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return line, nil
}

type readlineLines struct {
	rl *readline.Instance
}

func (r *readlineLines) ReadLine(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	line, err := r.rl.Readline()
	if err == readline.ErrInterrupt {
		return "", io.EOF
	}
	return line, err
}

func (r *readlineLines) Close() error {
	return r.rl.Close()
}

// NonInteractiveInteractor cancels every prompt. It is used when stdin is
// not a terminal.
type NonInteractiveInteractor struct{}

// NewNonInteractiveInteractor creates a new NonInteractiveInteractor.
func NewNonInteractiveInteractor() *NonInteractiveInteractor {
	return &NonInteractiveInteractor{}
}

// Choose always cancels.
func (NonInteractiveInteractor) Choose(string, []string) (int, bool) { return 0, false }

// ChooseMany always cancels.
func (NonInteractiveInteractor) ChooseMany(string, []string) ([]int, bool) { return nil, false }

// Input always cancels.
func (NonInteractiveInteractor) Input(string) (string, bool) { return "", false }
