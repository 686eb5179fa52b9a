package donations

import "errors"

// Sentinel kinds for aggregation errors.
var (
	// ErrInvalidInput marks a missing required field configuration.
	ErrInvalidInput = errors.New("invalid aggregation input")
)
