package app

import (
	"time"

	"github.com/okian/donorflow/internal/domain/clean"
	"github.com/okian/donorflow/internal/domain/csvparse"
	"github.com/okian/donorflow/internal/domain/donations"
	"github.com/okian/donorflow/internal/domain/geo"
	"github.com/okian/donorflow/internal/domain/join"
	"github.com/okian/donorflow/internal/domain/model"
	"github.com/okian/donorflow/internal/domain/roi"
)

// Request carries the three exports of one run.
type Request struct {
	// Contacts is the contact export (left side of the join).
	Contacts string `json:"contacts" validate:"required"`
	// ActivistCodes is the activist code export (right side). When empty the
	// join is skipped and cleaned contacts feed aggregation directly.
	ActivistCodes string `json:"activist_codes,omitempty"`
	// Donations is the donation export.
	Donations string `json:"donations" validate:"required"`
	// AcquisitionCost overrides the configured cost when positive.
	AcquisitionCost float64 `json:"acquisition_cost,omitempty" validate:"gte=0"`
	// JoinKey and JoinMode override the configured join settings.
	JoinKey  string `json:"join_key,omitempty"`
	JoinMode string `json:"join_mode,omitempty"`
}

// Sources of parsed inputs, used as diagnostic keys and metric labels.
const (
	SourceContacts      = "contacts"
	SourceActivistCodes = "activist_codes"
	SourceDonations     = "donations"
)

// Stage names, used for metrics and logs.
const (
	StageParse     = "parse"
	StageClean     = "clean"
	StageJoin      = "join"
	StageAggregate = "aggregate"
	StageSimulate  = "simulate"
	StageGeo       = "geo"
)

// GeoResult is the donor coordinate side lookup.
type GeoResult struct {
	Coordinates map[string]geo.Coordinate `json:"coordinates"`
	Unresolved  []string                  `json:"unresolved"`
}

// Result is everything a run produced.
type Result struct {
	Parse               map[string]csvparse.Diagnostics `json:"parse"`
	Join                *join.Stats                     `json:"join,omitempty"`
	Clean               map[string]clean.Report         `json:"clean"`
	JoinedRecords       int                             `json:"joined_records"`
	Records             model.Dataset                   `json:"records"`
	Summaries           []donations.Summary             `json:"summaries"`
	Stats               donations.Stats                 `json:"stats"`
	DonationDiagnostics donations.Diagnostics           `json:"donation_diagnostics"`
	ROI                 roi.Result                      `json:"roi"`
	Geo                 GeoResult                       `json:"geo"`
	Elapsed             time.Duration                   `json:"elapsed_ns"`
}

// Status is the lifecycle state of an asynchronous run.
type Status string

// Run statuses.
const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is the stored record of an asynchronous run.
type Run struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Submitted time.Time `json:"submitted_at"`
	Finished  time.Time `json:"finished_at,omitzero"`
	Error     string    `json:"error,omitempty"`
	Result    *Result   `json:"result,omitempty"`
}

type job struct {
	id  string
	req Request
}
