package clean

import (
	"fmt"
	"strings"

	"github.com/okian/donorflow/internal/domain/model"
)

// FieldType declares how the cleaner treats a field.
type FieldType string

// Recognized field types.
const (
	TypeString     FieldType = "string"
	TypeNumeric    FieldType = "numeric"
	TypeDate       FieldType = "date"
	TypeIdentifier FieldType = "identifier"
	TypePostalCode FieldType = "postalCode"
)

// ParseFieldType maps a configuration string onto a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "string", "text":
		return TypeString, nil
	case "numeric", "number":
		return TypeNumeric, nil
	case "date":
		return TypeDate, nil
	case "identifier", "id", "email":
		return TypeIdentifier, nil
	case "postalcode", "postal_code", "zip":
		return TypePostalCode, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFieldType, s)
}

// Config enumerates per-field type hints and the expected date format.
type Config struct {
	// FieldTypes maps field names to their declared type. Fields without an
	// entry are cleaned as strings.
	FieldTypes map[string]FieldType

	// DateInputFormat is the layout date fields are parsed with. Both Go
	// reference layouts ("2006-01-02") and pattern style ("yyyy-MM-dd") are
	// accepted. Empty means model.DateLayout.
	DateInputFormat string
}

// DefaultConfig returns the hints used for ActBlue and NGP VAN exports.
func DefaultConfig() Config {
	return Config{
		FieldTypes: map[string]FieldType{
			"Email":        TypeIdentifier,
			"Donor Email":  TypeIdentifier,
			"Date Created": TypeDate,
			"Date":         TypeDate,
			"Donor ZIP":    TypePostalCode,
			"Amount":       TypeNumeric,
		},
		DateInputFormat: model.DateLayout,
	}
}

func (c Config) typeOf(field string) (FieldType, bool) {
	t, ok := c.FieldTypes[field]
	if !ok || t == "" {
		return TypeString, ok
	}
	return t, true
}

var patternLayout = strings.NewReplacer(
	"yyyy", "2006",
	"yy", "06",
	"MM", "01",
	"dd", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
	"M", "1",
	"d", "2",
	"H", "15",
)

// Layout converts a date format to a Go time layout. Pattern formats are
// recognized by their year token; single letter M, d and H tokens allow
// unpadded values.
func Layout(format string) string {
	switch {
	case format == "":
		return model.DateLayout
	case strings.Contains(format, "yy"):
		return patternLayout.Replace(format)
	default:
		return format
	}
}
