package app

import (
	"fmt"

	"github.com/okian/donorflow/internal/config"
	"github.com/okian/donorflow/internal/domain/clean"
	"github.com/okian/donorflow/internal/domain/donations"
	"github.com/okian/donorflow/internal/domain/geo"
	"github.com/okian/donorflow/internal/domain/join"
)

// Settings are the pipeline parameters shared by every run.
type Settings struct {
	Clean           clean.Config
	JoinKey         string
	JoinMode        join.Mode
	MatchField      string
	Donations       donations.Config
	AcquisitionCost float64
	PostalCodeField string
	// PreviewRows caps Result.Records.
	PreviewRows int
	// Geo is nil when coordinate lookup is disabled.
	Geo *geo.Table
}

// DefaultSettings matches config.New().
func DefaultSettings() Settings {
	s, err := SettingsFromConfig(config.New())
	if err != nil {
		panic(fmt.Sprintf("app: default settings: %v", err))
	}
	return s
}

// SettingsFromConfig converts process configuration into pipeline settings.
// It loads the geo table when a path is configured.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	cc, err := cfg.Clean()
	if err != nil {
		return Settings{}, err
	}
	mode, err := cfg.Mode()
	if err != nil {
		return Settings{}, err
	}
	table, err := geo.Load(cfg.GeoTablePath)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %w", config.ErrLoadConfig, err)
	}
	return Settings{
		Clean:           cc,
		JoinKey:         cfg.JoinKey,
		JoinMode:        mode,
		MatchField:      cfg.DonorMatchField,
		Donations:       cfg.Donations(),
		AcquisitionCost: cfg.AcquisitionCost,
		PostalCodeField: cfg.PostalCodeField,
		PreviewRows:     cfg.PreviewRows,
		Geo:             table,
	}, nil
}

// donationClean returns the cleaning configuration for donation exports.
// Numeric hints are dropped: a missing amount must not be imputed with the
// column mean, aggregation counts it as unparseable instead.
func (s Settings) donationClean() clean.Config {
	out := clean.Config{
		FieldTypes:      make(map[string]clean.FieldType, len(s.Clean.FieldTypes)),
		DateInputFormat: s.Clean.DateInputFormat,
	}
	for f, t := range s.Clean.FieldTypes {
		if t == clean.TypeNumeric {
			continue
		}
		out.FieldTypes[f] = t
	}
	return out
}

func (s Settings) identifierField() string {
	if s.Donations.IdentifierField != "" {
		return s.Donations.IdentifierField
	}
	return s.MatchField
}
