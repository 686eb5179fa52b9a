package donations

import (
	"fmt"
	"strings"
)

// Config names the fields aggregation reads.
type Config struct {
	// IdentifierField holds the donor identifier in the joined dataset.
	// Empty means the match field.
	IdentifierField string
	// NameFields are joined with a space to form the display name.
	NameFields []string
	// AmountField, DateField are read from donation rows.
	AmountField string
	DateField   string
	// CreationDateField is read from the joined donor record.
	CreationDateField string
}

// DefaultConfig returns the field names of NGP VAN contact exports joined
// with ActBlue donation exports.
func DefaultConfig() Config {
	return Config{
		IdentifierField:   "Email",
		NameFields:        []string{"First Name", "Last Name"},
		AmountField:       "Amount",
		DateField:         "Date",
		CreationDateField: "Date Created",
	}
}

func (c Config) validate(matchField string) error {
	var missing []string
	if strings.TrimSpace(matchField) == "" {
		missing = append(missing, "match field")
	}
	if strings.TrimSpace(c.AmountField) == "" {
		missing = append(missing, "amount field")
	}
	if strings.TrimSpace(c.DateField) == "" {
		missing = append(missing, "date field")
	}
	if strings.TrimSpace(c.CreationDateField) == "" {
		missing = append(missing, "creation date field")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}
