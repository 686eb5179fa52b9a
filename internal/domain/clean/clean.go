// Package clean normalizes parsed datasets: it imputes missing values,
// standardizes strings and rewrites dates and postal codes.
//
// Clean is idempotent: cleaning its own output returns an equal Dataset.
package clean

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/donorflow/internal/domain/model"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const postalCodeLength = 5

// Report summarizes what a Clean call changed.
type Report struct {
	// Imputed counts replaced missing values per field.
	Imputed map[string]int `json:"imputed"`
	// Means holds the imputation mean of every numeric field.
	Means map[string]float64 `json:"means"`
	// InvalidNumbers counts non-empty numeric values that failed to parse
	// and were imputed.
	InvalidNumbers int `json:"invalid_numbers"`
	// InvalidDates counts date values left as strings.
	InvalidDates int `json:"invalid_dates"`
	// Unhinted lists fields without a type hint, cleaned as strings.
	Unhinted []string `json:"unhinted,omitempty"`
}

// Clean returns a normalized copy of ds. The input is not modified.
func Clean(ds model.Dataset, cfg Config) (model.Dataset, Report) {
	rep := Report{
		Imputed: make(map[string]int),
		Means:   make(map[string]float64),
	}
	fields := ds.AllFields()
	for _, f := range fields {
		if _, ok := cfg.typeOf(f); !ok {
			rep.Unhinted = append(rep.Unhinted, f)
		}
	}

	records := reshape(ds, fields)
	impute(records, fields, cfg, &rep)
	normalize(records, fields, cfg)
	format(records, fields, cfg, &rep)

	return model.NewDataset(fields, records), rep
}

// reshape copies every record with its fields in schema order. Absent fields
// are set to the empty string so the imputation pass sees them as missing.
func reshape(ds model.Dataset, fields []string) []model.Record {
	src := ds.Records()
	out := make([]model.Record, len(src))
	for i, r := range src {
		rec := model.NewRecord(len(fields))
		for _, f := range fields {
			v, _ := r.Get(f)
			rec.Set(f, v)
		}
		out[i] = rec
	}
	return out
}

func impute(records []model.Record, fields []string, cfg Config, rep *Report) {
	for _, f := range fields {
		t, _ := cfg.typeOf(f)
		if t != TypeNumeric {
			for i := range records {
				if v, _ := records[i].Get(f); v.IsMissing() {
					records[i].Set(f, model.String(model.Unknown))
					rep.Imputed[f]++
				}
			}
			continue
		}

		// The mean is fixed before any substitution.
		var (
			sum     float64
			n       int
			missing []int
		)
		for i := range records {
			v, _ := records[i].Get(f)
			num, ok := toNumber(v)
			if !ok {
				if !v.IsMissing() {
					rep.InvalidNumbers++
				}
				missing = append(missing, i)
				continue
			}
			records[i].Set(f, model.Number(num))
			sum += num
			n++
		}
		var mean float64
		if n > 0 {
			mean = sum / float64(n)
		}
		rep.Means[f] = mean
		for _, i := range missing {
			records[i].Set(f, model.Number(mean))
			rep.Imputed[f]++
		}
	}
}

func normalize(records []model.Record, fields []string, cfg Config) {
	lower := cases.Lower(language.Und)
	for _, f := range fields {
		t, _ := cfg.typeOf(f)
		for i := range records {
			v, _ := records[i].Get(f)
			if v.Kind() != model.KindString {
				continue
			}
			s := lower.String(strings.TrimSpace(v.String()))
			if t == TypeIdentifier {
				s = strings.Join(strings.Fields(s), "")
			}
			records[i].Set(f, model.String(s))
		}
	}
}

func format(records []model.Record, fields []string, cfg Config, rep *Report) {
	layouts := []string{Layout(cfg.DateInputFormat), model.DateLayout, time.RFC3339}
	for _, f := range fields {
		t, _ := cfg.typeOf(f)
		if t != TypeDate && t != TypePostalCode {
			continue
		}
		for i := range records {
			v, _ := records[i].Get(f)
			if v.Kind() != model.KindString || v.String() == model.Unknown {
				continue
			}
			switch t {
			case TypeDate:
				d, ok := parseDate(v.String(), layouts)
				if !ok {
					rep.InvalidDates++
					continue
				}
				records[i].Set(f, model.Date(d))
			case TypePostalCode:
				if r := []rune(v.String()); len(r) > postalCodeLength {
					records[i].Set(f, model.String(string(r[:postalCodeLength])))
				}
			}
		}
	}
}

func parseDate(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// toNumber reads a numeric payload from v. Strings may carry a leading
// currency symbol and thousands separators.
func toNumber(v model.Value) (float64, bool) {
	if f, ok := v.Float(); ok {
		return f, true
	}
	if v.Kind() != model.KindString || v.IsMissing() {
		return 0, false
	}
	return ParseNumber(v.String())
}

// ParseNumber parses amounts such as "12.50", "$1,200" or "-$3".
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}
