package activity

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"

	scribeErrors "github.com/bashhack/scribe/internal/errors"
	"github.com/bashhack/scribe/internal/logger"
)

// maxLineSize bounds a single event line.
const maxLineSize = 1 << 20

// Source produces editor events. Run sends events to out until the source
// is exhausted or ctx ends, then closes out.
type Source interface {
	Run(ctx context.Context, out chan<- Event) error
}

// StreamSource decodes newline-delimited JSON events from a reader, usually
// the stdin pipe of an editor integration.
type StreamSource struct {
	r      io.Reader
	logger logger.Logger
}

// NewStreamSource returns a StreamSource reading from r.
func NewStreamSource(r io.Reader, log logger.Logger) *StreamSource {
	return &StreamSource{r: r, logger: log}
}

// Run implements Source. Malformed lines are logged and skipped. Reaching
// EOF closes out and returns nil.
//
// Reads from a pipe cannot be interrupted, so the scan runs on its own
// goroutine and Run returns as soon as ctx ends.
func (s *StreamSource) Run(ctx context.Context, out chan<- Event) error {
	defer close(out)

	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(s.r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	lineNo := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return scribeErrors.Wrap(err, "failed to read event stream")
					}
				default:
				}
				s.logger.Info("Event stream closed after %d lines", lineNo)
				return nil
			}
			lineNo++

			event, ok := s.decode(lineNo, line)
			if !ok {
				continue
			}

			select {
			case out <- event:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (s *StreamSource) decode(lineNo int, line []byte) (Event, bool) {
	if len(bytes.TrimSpace(line)) == 0 {
		return Event{}, false
	}

	var event Event
	if err := json.Unmarshal(line, &event); err != nil {
		s.logger.Warning("Skipping malformed event on line %d: %v", lineNo, err)
		return Event{}, false
	}
	if err := event.Validate(); err != nil {
		s.logger.Warning("Skipping invalid event on line %d: %v", lineNo, err)
		return Event{}, false
	}
	return event, true
}
