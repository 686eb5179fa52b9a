// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New() to build a Config with defaults.
//   - Load layers a .env file, an optional YAML file and DONORFLOW_ env vars
//     over those defaults.
//   - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"runtime"

	"github.com/okian/donorflow/internal/domain/clean"
	"github.com/okian/donorflow/internal/domain/donations"
	"github.com/okian/donorflow/internal/domain/join"
	"github.com/okian/donorflow/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// QueueSize bounds the in-memory run queue.
	QueueSize int `koanf:"queue_size" validate:"gte=1"`

	// WorkerCount sets the number of pipeline workers.
	WorkerCount int `koanf:"worker_count" validate:"gte=1"`

	// ResultStoreSize caps how many finished runs are kept for GET /v1/runs/{id}.
	ResultStoreSize int `koanf:"result_store_size" validate:"gte=1"`

	// MaxUploadBytes caps request bodies.
	MaxUploadBytes int64 `koanf:"max_upload_bytes" validate:"gte=1024"`

	// JoinKey and JoinMode configure the contacts/activist codes join.
	JoinKey  string `koanf:"join_key" validate:"required"`
	JoinMode string `koanf:"join_mode"`

	// DateInputFormat is the pattern of dates in uploads, e.g. "yyyy-MM-dd".
	DateInputFormat string `koanf:"date_input_format"`

	// FieldTypes maps field names to string, numeric, date, identifier or
	// postalCode. Entries are merged over the defaults.
	FieldTypes map[string]string `koanf:"field_types"`

	DonorMatchField      string   `koanf:"donor_match_field" validate:"required"`
	DonorIdentifierField string   `koanf:"donor_identifier_field"`
	DonorNameFields      []string `koanf:"donor_name_fields"`
	AmountField          string   `koanf:"amount_field" validate:"required"`
	DonationDateField    string   `koanf:"donation_date_field" validate:"required"`
	CreationDateField    string   `koanf:"creation_date_field" validate:"required"`

	// AcquisitionCost is used when a request does not carry one. Zero means
	// every request must.
	AcquisitionCost float64 `koanf:"acquisition_cost" validate:"gte=0"`

	// PostalCodeField is read from joined records for coordinate lookup.
	PostalCodeField string `koanf:"postal_code_field"`
	// GeoTablePath replaces the embedded zip,lat,lng table when set.
	GeoTablePath string `koanf:"geo_table_path"`

	// PreviewRows caps the joined records returned with each result.
	PreviewRows int `koanf:"preview_rows" validate:"gte=0"`
}

// New creates a Config with defaults.
func New() *Config {
	dc := donations.DefaultConfig()
	types := make(map[string]string)
	for f, t := range clean.DefaultConfig().FieldTypes {
		types[f] = string(t)
	}
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		QueueSize:            1_000,
		WorkerCount:          runtime.NumCPU(),
		ResultStoreSize:      500,
		MaxUploadBytes:       32 << 20,
		JoinKey:              "VANID",
		JoinMode:             string(join.InnerFromLeft),
		DateInputFormat:      "yyyy-MM-dd",
		FieldTypes:           types,
		DonorMatchField:      "Donor Email",
		DonorIdentifierField: dc.IdentifierField,
		DonorNameFields:      dc.NameFields,
		AmountField:          dc.AmountField,
		DonationDateField:    dc.DateField,
		CreationDateField:    dc.CreationDateField,
		PostalCodeField:      "Donor ZIP",
		PreviewRows:          10,
	}
}

// Clean returns the cleaning configuration.
func (c *Config) Clean() (clean.Config, error) {
	cc := clean.Config{
		FieldTypes:      make(map[string]clean.FieldType, len(c.FieldTypes)),
		DateInputFormat: c.DateInputFormat,
	}
	if cc.DateInputFormat == "" {
		cc.DateInputFormat = model.DateLayout
	}
	for f, s := range c.FieldTypes {
		t, err := clean.ParseFieldType(s)
		if err != nil {
			return clean.Config{}, fmt.Errorf("%w: field_types[%s]: %w", ErrInvalidConfig, f, err)
		}
		cc.FieldTypes[f] = t
	}
	return cc, nil
}

// Mode returns the parsed join mode.
func (c *Config) Mode() (join.Mode, error) {
	m, err := join.ParseMode(c.JoinMode)
	if err != nil {
		return "", fmt.Errorf("%w: join_mode: %w", ErrInvalidConfig, err)
	}
	return m, nil
}

// Donations returns the aggregation field configuration.
func (c *Config) Donations() donations.Config {
	return donations.Config{
		IdentifierField:   c.DonorIdentifierField,
		NameFields:        append([]string(nil), c.DonorNameFields...),
		AmountField:       c.AmountField,
		DateField:         c.DonationDateField,
		CreationDateField: c.CreationDateField,
	}
}
