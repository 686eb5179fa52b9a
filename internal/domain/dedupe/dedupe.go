// Package dedupe tracks which keys a pipeline stage has already seen.
package dedupe

// Seen records keys in first-seen order.
//
// A Seen belongs to one stage invocation. It is not safe for concurrent use
// and must not be shared between runs.
type Seen struct {
	index map[string]struct{}
	order []string
	hint  int
}

// New creates an empty Seen configured by opts.
func New(opts ...Option) *Seen {
	s := &Seen{}
	for _, opt := range opts {
		opt(s)
	}
	s.index = make(map[string]struct{}, s.hint)
	s.order = make([]string, 0, s.hint)
	return s
}

// SeenAndRecord reports whether key was already recorded and records it if
// not.
func (s *Seen) SeenAndRecord(key string) bool {
	if _, ok := s.index[key]; ok {
		return true
	}
	s.index[key] = struct{}{}
	s.order = append(s.order, key)
	return false
}

// Contains reports whether key was recorded.
func (s *Seen) Contains(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Keys returns the recorded keys in first-seen order.
func (s *Seen) Keys() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Size returns the number of recorded keys.
func (s *Seen) Size() int { return len(s.order) }
