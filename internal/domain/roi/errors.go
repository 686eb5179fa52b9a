package roi

import "errors"

// ErrInvalidInput is returned when the acquisition cost is not a finite
// positive number.
var ErrInvalidInput = errors.New("roi: invalid input")
