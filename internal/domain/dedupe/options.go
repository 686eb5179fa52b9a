package dedupe

// Option applies a configuration option to a Seen set.
type Option func(*Seen)

// WithSizeHint preallocates room for n keys.
func WithSizeHint(n int) Option {
	return func(s *Seen) {
		if n > 0 {
			s.hint = n
		}
	}
}
