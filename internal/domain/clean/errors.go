package clean

import "errors"

// Sentinel kinds for cleaner errors.
var (
	ErrUnknownFieldType = errors.New("unknown field type")
)
