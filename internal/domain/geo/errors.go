package geo

import "errors"

var (
	// ErrMissingColumn is returned when a table lacks zip, lat or lng.
	ErrMissingColumn = errors.New("geo: table is missing a required column")
	// ErrEmptyTable is returned when no row of a table could be used.
	ErrEmptyTable = errors.New("geo: table has no usable rows")
)
