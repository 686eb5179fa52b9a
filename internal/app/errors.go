package app

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrInvalidInput marks requests that cannot be run. Stage input errors
	// are wrapped with it so one errors.Is check covers them all.
	ErrInvalidInput = errors.New("invalid input")
	// ErrBackpressure is returned by Submit when the run queue is full.
	ErrBackpressure = errors.New("run queue is full")
	// ErrNotStarted is returned by Submit before Start or after Stop.
	ErrNotStarted = errors.New("service not started")
)
