package activity

// Store accumulates edit counts per path between flushes.
//
// A Store is not safe for concurrent use. The scheduler loop owns it and
// applies events and drains on the same goroutine, which keeps Drain atomic
// with respect to the event timeline.
type Store struct {
	counts map[string]int
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{counts: make(map[string]int)}
}

// RecordOpen makes sure path is tracked. An existing count is left alone.
func (s *Store) RecordOpen(path string) {
	if _, ok := s.counts[path]; !ok {
		s.counts[path] = 0
	}
}

// RecordEdit adds delta edits to path. A non-positive delta only makes
// sure the path is tracked.
func (s *Store) RecordEdit(path string, delta int) {
	if delta <= 0 {
		s.RecordOpen(path)
		return
	}
	s.counts[path] += delta
}

// Drain returns everything recorded since the previous drain and resets
// the store.
func (s *Store) Drain() map[string]int {
	drained := s.counts
	s.counts = make(map[string]int, len(drained))
	return drained
}

// Len returns the number of tracked paths.
func (s *Store) Len() int {
	return len(s.counts)
}
