package loadtest

import (
	"fmt"
	"math"

	"github.com/okian/donorflow/internal/app"
)

const totalTolerance = 1e-6

// verify checks a finished run against its fixture.
func verify(fx Fixture, run app.Run) error {
	if run.Result == nil {
		return fmt.Errorf("run %s has no result", run.ID)
	}
	res := run.Result
	if got := len(res.Summaries); got != fx.Donors {
		return fmt.Errorf("run %s: %d donors summarized, want %d", run.ID, got, fx.Donors)
	}
	if math.Abs(res.Stats.TotalAmount-fx.Total) > totalTolerance {
		return fmt.Errorf("run %s: total %.2f, want %.2f", run.ID, res.Stats.TotalAmount, fx.Total)
	}
	if fx.Total > 0 && !res.ROI.Reached() {
		return fmt.Errorf("run %s: expected breakeven at cost %.2f", run.ID, res.ROI.AcquisitionCost)
	}
	return nil
}
