// Package roi replays cohort donations day by day against the cost of
// acquiring the cohort.
package roi

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/donorflow/internal/domain/donations"

	"github.com/shopspring/decimal"
)

const percent = 100

// Point is one step of the cumulative donation curve.
type Point struct {
	Day        int     `json:"day"`
	Cumulative float64 `json:"cumulative"`
}

// Result reports when, if ever, cumulative donations cover the cost.
type Result struct {
	AcquisitionCost float64 `json:"acquisition_cost"`
	// BreakevenDay is nil when donations never cover the cost.
	BreakevenDay *int `json:"breakeven_day"`
	// PercentageReturn is set on breakeven: running total at that day over
	// cost, in percent.
	PercentageReturn float64 `json:"percentage_return,omitempty"`
	// PercentageRecovered is set otherwise: final total over cost, in percent.
	PercentageRecovered float64 `json:"percentage_recovered"`
	Curve               []Point `json:"curve"`
	// SkippedDonors counts summaries without a known day offset.
	SkippedDonors int `json:"skipped_donors"`
}

// Reached reports whether the cohort broke even.
func (r Result) Reached() bool { return r.BreakevenDay != nil }

// Simulate buckets each donor's total on their days-to-first-donation and
// walks the buckets in ascending day order. Donations recorded before the
// donor's creation date land on day 0.
func Simulate(summaries []donations.Summary, acquisitionCost float64) (Result, error) {
	if math.IsNaN(acquisitionCost) || math.IsInf(acquisitionCost, 0) || acquisitionCost <= 0 {
		return Result{}, fmt.Errorf("%w: acquisition cost must be positive, got %v", ErrInvalidInput, acquisitionCost)
	}

	res := Result{AcquisitionCost: acquisitionCost, Curve: make([]Point, 0)}
	buckets := make(map[int]decimal.Decimal)
	for _, s := range summaries {
		if !s.DaysKnown {
			res.SkippedDonors++
			continue
		}
		day := max(s.DaysToFirstDonation, 0)
		buckets[day] = buckets[day].Add(decimal.NewFromFloat(s.TotalDonated))
	}

	days := make([]int, 0, len(buckets))
	for d := range buckets {
		days = append(days, d)
	}
	sort.Ints(days)

	cost := decimal.NewFromFloat(acquisitionCost)
	hundred := decimal.NewFromInt(percent)
	running := decimal.Zero
	for _, d := range days {
		running = running.Add(buckets[d])
		res.Curve = append(res.Curve, Point{Day: d, Cumulative: running.InexactFloat64()})
		if running.GreaterThanOrEqual(cost) {
			day := d
			res.BreakevenDay = &day
			res.PercentageReturn = running.Div(cost).Mul(hundred).InexactFloat64()
			return res, nil
		}
	}
	res.PercentageRecovered = running.Div(cost).Mul(hundred).InexactFloat64()
	return res, nil
}
