package api

import "github.com/okian/donorflow/pkg/logger"

const (
	defaultMaxBodyBytes = 32 << 20
	defaultRunLimit     = 20
	defaultMaxRunLimit  = 500
)

// Option configures a Server.
type Option func(*Server)

// WithMaxBodyBytes caps request bodies, including multipart uploads.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithMaxRunLimit caps the limit query parameter of run listings.
func WithMaxRunLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxRunLimit = n
		}
	}
}

// WithLogger sets the logger used for request failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
