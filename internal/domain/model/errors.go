package model

import "errors"

// Sentinel kinds for decoding errors.
var (
	ErrInvalidRecord = errors.New("invalid record")
)
