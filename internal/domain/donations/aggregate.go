// Package donations relates donors to their donation history and computes
// per-donor and cohort statistics.
package donations

import (
	"math"
	"strings"
	"time"

	"github.com/okian/donorflow/internal/domain/clean"
	"github.com/okian/donorflow/internal/domain/dedupe"
	"github.com/okian/donorflow/internal/domain/model"

	"github.com/shopspring/decimal"
)

const hoursPerDay = 24

// Summary aggregates the donations of one donor.
type Summary struct {
	Identifier   string  `json:"identifier"`
	Name         string  `json:"name"`
	TotalDonated float64 `json:"total_donated"`
	TimesDonated int     `json:"times_donated"`
	// FirstDonation is the earliest dated donation; zero when no donation
	// carried a usable date.
	FirstDonation time.Time `json:"first_donation,omitzero"`
	// DaysToFirstDonation is negative when the donation predates the
	// recorded creation date. Only meaningful when DaysKnown is set.
	DaysToFirstDonation int  `json:"days_to_first_donation"`
	DaysKnown           bool `json:"days_known"`
}

// Stats are computed over summaries, not over raw donation rows.
type Stats struct {
	Donors       int     `json:"donors"`
	TotalAmount  float64 `json:"total_amount"`
	TotalCount   int     `json:"total_count"`
	Average      float64 `json:"average"`
	MedianAmount float64 `json:"median_amount"`
	MedianDays   float64 `json:"median_days"`
}

// Diagnostics counts rows aggregation could not fully use.
type Diagnostics struct {
	DistinctDonors     int `json:"distinct_donors"`
	DuplicateDonors    int `json:"duplicate_donors"`
	MissingIdentifiers int `json:"missing_identifiers"`
	DonorsWithoutMatch int `json:"donors_without_match"`
	InvalidAmounts     int `json:"invalid_amounts"`
	UndatedDonations   int `json:"undated_donations"`
}

// Result is the output of Aggregate.
type Result struct {
	Summaries   []Summary   `json:"summaries"`
	Stats       Stats       `json:"stats"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Aggregate builds one Summary per distinct donor of joined that has at least
// one donation row whose matchField equals the donor identifier. Donors keep
// the order they are first seen in joined; repeated donor rows are ignored.
func Aggregate(joined, donations model.Dataset, matchField string, cfg Config) (Result, error) {
	if err := cfg.validate(matchField); err != nil {
		return Result{}, err
	}
	idField := cfg.IdentifierField
	if strings.TrimSpace(idField) == "" {
		idField = matchField
	}

	var diag Diagnostics
	rows := donations.Records()
	byDonor := make(map[string][]int)
	for i, r := range rows {
		if id, ok := identifier(r, matchField); ok {
			byDonor[id] = append(byDonor[id], i)
		}
	}

	donors := dedupe.New(dedupe.WithSizeHint(joined.Len()))
	summaries := make([]Summary, 0)
	for _, donor := range joined.Records() {
		id, ok := identifier(donor, idField)
		if !ok {
			diag.MissingIdentifiers++
			continue
		}
		if donors.SeenAndRecord(id) {
			diag.DuplicateDonors++
			continue
		}
		matches := byDonor[id]
		if len(matches) == 0 {
			diag.DonorsWithoutMatch++
			continue
		}

		s := Summary{
			Identifier:   id,
			Name:         displayName(donor, cfg.NameFields, id),
			TimesDonated: len(matches),
		}
		total := decimal.Zero
		for _, i := range matches {
			amount, ok := amountOf(rows[i], cfg.AmountField)
			if !ok {
				diag.InvalidAmounts++
			}
			total = total.Add(amount)

			d, ok := dateOf(rows[i], cfg.DateField)
			if !ok {
				diag.UndatedDonations++
				continue
			}
			if s.FirstDonation.IsZero() || d.Before(s.FirstDonation) {
				s.FirstDonation = d
			}
		}
		s.TotalDonated = total.InexactFloat64()
		if created, ok := dateOf(donor, cfg.CreationDateField); ok && !s.FirstDonation.IsZero() {
			s.DaysToFirstDonation = DaysBetween(created, s.FirstDonation)
			s.DaysKnown = true
		}
		summaries = append(summaries, s)
	}
	diag.DistinctDonors = donors.Size()

	return Result{
		Summaries:   summaries,
		Stats:       Summarize(summaries),
		Diagnostics: diag,
	}, nil
}

// Summarize computes cohort statistics over summaries. An empty input yields
// zero statistics.
func Summarize(summaries []Summary) Stats {
	st := Stats{Donors: len(summaries)}
	if st.Donors == 0 {
		return st
	}
	total := decimal.Zero
	amounts := make([]float64, 0, len(summaries))
	days := make([]float64, 0, len(summaries))
	for _, s := range summaries {
		total = total.Add(decimal.NewFromFloat(s.TotalDonated))
		st.TotalCount += s.TimesDonated
		amounts = append(amounts, s.TotalDonated)
		if s.DaysKnown {
			days = append(days, float64(s.DaysToFirstDonation))
		}
	}
	st.TotalAmount = total.InexactFloat64()
	st.Average = total.Div(decimal.NewFromInt(int64(st.Donors))).InexactFloat64()
	st.MedianAmount = Median(amounts)
	st.MedianDays = Median(days)
	return st
}

// DaysBetween returns the floor of the whole UTC calendar days from start to
// end.
func DaysBetween(start, end time.Time) int {
	return int(math.Floor(model.Day(end).Sub(model.Day(start)).Hours() / hoursPerDay))
}

func identifier(r model.Record, field string) (string, bool) {
	v, ok := r.Get(field)
	if !ok || v.IsMissing() {
		return "", false
	}
	id := strings.TrimSpace(v.String())
	if id == model.Unknown {
		return "", false
	}
	return id, true
}

func amountOf(r model.Record, field string) (decimal.Decimal, bool) {
	v, ok := r.Get(field)
	if !ok {
		return decimal.Zero, false
	}
	if f, ok := v.Float(); ok {
		return decimal.NewFromFloat(f), true
	}
	if f, ok := clean.ParseNumber(v.String()); ok {
		return decimal.NewFromFloat(f), true
	}
	return decimal.Zero, false
}

func dateOf(r model.Record, field string) (time.Time, bool) {
	v, ok := r.Get(field)
	if !ok {
		return time.Time{}, false
	}
	if t, ok := v.Time(); ok {
		return t, true
	}
	for _, layout := range []string{model.DateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, strings.TrimSpace(v.String())); err == nil {
			return model.Day(t), true
		}
	}
	return time.Time{}, false
}

func displayName(r model.Record, fields []string, fallback string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		v, ok := r.Get(f)
		if !ok || v.IsMissing() || v.String() == model.Unknown {
			continue
		}
		parts = append(parts, strings.TrimSpace(v.String()))
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, " ")
}
