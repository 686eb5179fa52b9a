package join

import "errors"

// Sentinel kinds for join errors.
var (
	ErrUnknownMode = errors.New("unknown join mode")
)
