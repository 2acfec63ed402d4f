package activity

import (
	"fmt"
)

// Kind distinguishes editor notifications.
type Kind string

const (
	// KindOpen is sent when a document is opened.
	KindOpen Kind = "open"

	// KindChange is sent when a document's content changes.
	KindChange Kind = "change"
)

// Event is one editor notification, as carried on the wire:
//
//	{"type":"open","path":"/work/main.go"}
//	{"type":"change","path":"/work/main.go","changes":3}
type Event struct {
	Kind    Kind   `json:"type"`
	Path    string `json:"path"`
	Changes int    `json:"changes,omitempty"`
}

// Validate reports malformed events.
func (e Event) Validate() error {
	if e.Path == "" {
		return fmt.Errorf("event has no path")
	}
	switch e.Kind {
	case KindOpen, KindChange:
		return nil
	default:
		return fmt.Errorf("unknown event type %q", e.Kind)
	}
}

// Apply records the event in s.
func (e Event) Apply(s *Store) {
	switch e.Kind {
	case KindOpen:
		s.RecordOpen(e.Path)
	case KindChange:
		s.RecordEdit(e.Path, e.Changes)
	}
}
