package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore(t *testing.T) {
	tests := map[string]struct {
		apply    func(s *Store)
		expected map[string]int
	}{
		"open materializes zero": {
			apply:    func(s *Store) { s.RecordOpen("a.txt") },
			expected: map[string]int{"a.txt": 0},
		},
		"edits sum": {
			apply: func(s *Store) {
				s.RecordEdit("a.txt", 1)
				s.RecordEdit("a.txt", 2)
				s.RecordEdit("b.txt", 1)
			},
			expected: map[string]int{"a.txt": 3, "b.txt": 1},
		},
		"open never decreases": {
			apply: func(s *Store) {
				s.RecordEdit("a.txt", 4)
				s.RecordOpen("a.txt")
			},
			expected: map[string]int{"a.txt": 4},
		},
		"zero delta only materializes": {
			apply: func(s *Store) {
				s.RecordEdit("a.txt", 0)
				s.RecordEdit("b.txt", 2)
				s.RecordEdit("b.txt", -5)
			},
			expected: map[string]int{"a.txt": 0, "b.txt": 2},
		},
		"nothing recorded": {
			apply:    func(s *Store) {},
			expected: map[string]int{},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s := NewStore()
			tc.apply(s)
			assert.Equal(t, len(tc.expected), s.Len())
			assert.Equal(t, tc.expected, s.Drain())
		})
	}
}

func TestDrainResets(t *testing.T) {
	s := NewStore()
	s.RecordOpen("a.txt")
	s.RecordEdit("b.txt", 2)

	first := s.Drain()
	assert.Equal(t, map[string]int{"a.txt": 0, "b.txt": 2}, first)
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Drain(), "a second drain with no events is empty")

	s.RecordEdit("b.txt", 1)
	assert.Equal(t, map[string]int{"b.txt": 1}, s.Drain())
	assert.Equal(t, 2, first["b.txt"], "a drained map is not affected by later events")
}

func TestEventApply(t *testing.T) {
	s := NewStore()

	Event{Kind: KindOpen, Path: "a.txt"}.Apply(s)
	Event{Kind: KindChange, Path: "b.txt", Changes: 1}.Apply(s)
	Event{Kind: KindChange, Path: "b.txt", Changes: 1}.Apply(s)
	Event{Kind: "close", Path: "c.txt"}.Apply(s)

	assert.Equal(t, map[string]int{"a.txt": 0, "b.txt": 2}, s.Drain())
}

func TestEventValidate(t *testing.T) {
	tests := map[string]struct {
		event Event
		valid bool
	}{
		"open":         {event: Event{Kind: KindOpen, Path: "/a"}, valid: true},
		"change":       {event: Event{Kind: KindChange, Path: "/a", Changes: 2}, valid: true},
		"missing path": {event: Event{Kind: KindOpen}, valid: false},
		"unknown kind": {event: Event{Kind: "save", Path: "/a"}, valid: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := tc.event.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
