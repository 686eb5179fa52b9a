package worker

import (
	"github.com/okian/donorflow/pkg/logger"
)

type options struct {
	size   int
	name   string
	logger logger.Logger
}

// Option applies a configuration option to a Pool.
type Option func(*options)

// WithSize sets the number of workers. Values below one are ignored.
func WithSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.size = n
		}
	}
}

// WithName sets the worker name prefix used in logs.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
