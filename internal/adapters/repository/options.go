package repository

type options struct {
	capacity int
}

// Option applies a configuration option to the MemoryStore.
type Option func(*options)

// WithCapacity bounds the number of records kept.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}
