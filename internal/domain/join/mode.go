package join

import (
	"fmt"
	"strings"
)

// Mode selects whether right-only records are part of the output.
type Mode string

// Join modes.
const (
	// InnerFromLeft emits one record per left record and drops right-only
	// records. It is the default.
	InnerFromLeft Mode = "innerFromLeft"
	// OuterIncludeRightOnly also appends right records whose key never
	// occurs on the left, in right's order.
	OuterIncludeRightOnly Mode = "outerIncludeRightOnly"
)

// ParseMode maps a configuration string onto a Mode. The empty string is
// InnerFromLeft.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "innerfromleft", "inner", "left":
		return InnerFromLeft, nil
	case "outerincluderightonly", "outer", "full":
		return OuterIncludeRightOnly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}
