package worker

import "errors"

// ErrPanic wraps a panic recovered from a handler.
var ErrPanic = errors.New("worker: handler panicked")
