// Package loadtest drives a running donorflow server with generated exports
// and checks every run result against what the generator expects.
package loadtest

import (
	"runtime"
	"time"
)

const (
	defaultBaseURL      = "http://localhost:9080"
	defaultRuns         = 50
	defaultDonors       = 200
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = 100 * time.Millisecond
	percentMultiplier   = 100
)

// Config holds configuration for a load test.
type Config struct {
	BaseURL      string        // Base URL of the service
	Runs         int           // Number of runs to submit
	Donors       int           // Contacts per generated run
	Workers      int           // Concurrent submitters
	Timeout      time.Duration // HTTP request timeout and per-run wait limit
	PollInterval time.Duration // Delay between run status checks
}

// DefaultConfig returns a Config for a local server.
func DefaultConfig() Config {
	return Config{
		BaseURL:      defaultBaseURL,
		Runs:         defaultRuns,
		Donors:       defaultDonors,
		Workers:      runtime.NumCPU() * 2,
		Timeout:      defaultTimeout,
		PollInterval: defaultPollInterval,
	}
}

// Stats holds load test statistics.
type Stats struct {
	RunsGenerated int           `json:"runs_generated"`
	Accepted      int           `json:"accepted"`
	Rejected      int           `json:"rejected"`
	Succeeded     int           `json:"succeeded"`
	Failed        int           `json:"failed"`
	Mismatched    int           `json:"mismatched"`
	Duration      time.Duration `json:"duration_ns"`
}

// SuccessRate is the share of generated runs that succeeded with the
// expected result, in percent.
func (s Stats) SuccessRate() float64 {
	if s.RunsGenerated == 0 {
		return 0
	}
	return float64(s.Succeeded-s.Mismatched) / float64(s.RunsGenerated) * percentMultiplier
}
