// Package export writes run results as CSV or XLSX downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/okian/donorflow/internal/domain/donations"
	"github.com/okian/donorflow/internal/domain/model"
	"github.com/okian/donorflow/internal/domain/roi"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the XLSX workbook.
const (
	SheetSummaries = "Summaries"
	SheetStats     = "Stats"
	SheetCurve     = "ROI Curve"
)

// Header is the column order of summary exports.
var Header = []string{"identifier", "name", "total_donated", "times_donated", "first_donation", "days_to_first_donation"}

// Report is the part of a run result that is exported.
type Report struct {
	Summaries []donations.Summary
	Stats     donations.Stats
	ROI       roi.Result
}

// WriteCSV writes one row per donor summary.
func WriteCSV(w io.Writer, summaries []donations.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("export: csv header: %w", err)
	}
	for _, s := range summaries {
		if err := cw.Write(summaryRow(s)); err != nil {
			return fmt.Errorf("export: csv row %s: %w", s.Identifier, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: csv flush: %w", err)
	}
	return nil
}

// WriteXLSX writes a workbook with summaries, cohort statistics and the ROI
// curve on separate sheets.
func WriteXLSX(w io.Writer, rep Report) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("export: close workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetSummaries); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}
	if err := setRow(f, SheetSummaries, 1, toAny(Header)); err != nil {
		return err
	}
	for i, s := range rep.Summaries {
		row := []any{s.Identifier, s.Name, s.TotalDonated, s.TimesDonated, firstDonation(s), days(s)}
		if err := setRow(f, SheetSummaries, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SheetStats); err != nil {
		return fmt.Errorf("export: new sheet: %w", err)
	}
	stats := [][]any{
		{"metric", "value"},
		{"donors", rep.Stats.Donors},
		{"total_amount", rep.Stats.TotalAmount},
		{"total_count", rep.Stats.TotalCount},
		{"average", rep.Stats.Average},
		{"median_amount", rep.Stats.MedianAmount},
		{"median_days", rep.Stats.MedianDays},
		{"acquisition_cost", rep.ROI.AcquisitionCost},
	}
	if rep.ROI.Reached() {
		stats = append(stats,
			[]any{"breakeven_day", *rep.ROI.BreakevenDay},
			[]any{"percentage_return", rep.ROI.PercentageReturn},
		)
	} else {
		stats = append(stats, []any{"percentage_recovered", rep.ROI.PercentageRecovered})
	}
	for i, row := range stats {
		if err := setRow(f, SheetStats, i+1, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SheetCurve); err != nil {
		return fmt.Errorf("export: new sheet: %w", err)
	}
	if err := setRow(f, SheetCurve, 1, []any{"day", "cumulative"}); err != nil {
		return err
	}
	for i, p := range rep.ROI.Curve {
		if err := setRow(f, SheetCurve, i+2, []any{p.Day, p.Cumulative}); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("export: cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("export: %s row %d: %w", sheet, row, err)
	}
	return nil
}

func summaryRow(s donations.Summary) []string {
	return []string{
		s.Identifier,
		s.Name,
		strconv.FormatFloat(s.TotalDonated, 'f', -1, 64),
		strconv.Itoa(s.TimesDonated),
		firstDonation(s),
		days(s),
	}
}

func firstDonation(s donations.Summary) string {
	if s.FirstDonation.IsZero() {
		return ""
	}
	return s.FirstDonation.Format(model.DateLayout)
}

// days is empty when the offset is unknown, so spreadsheets do not read it
// as zero.
func days(s donations.Summary) string {
	if !s.DaysKnown {
		return ""
	}
	return strconv.Itoa(s.DaysToFirstDonation)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
