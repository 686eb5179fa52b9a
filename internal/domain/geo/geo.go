// Package geo resolves donor postal codes to map coordinates.
package geo

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/donorflow/internal/domain/csvparse"
	"github.com/okian/donorflow/internal/domain/model"
)

//go:embed zipcodes.csv
var defaultTable string

const (
	colZip = "zip"
	colLat = "lat"
	colLng = "lng"
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Table maps five digit postal codes to coordinates. It is read-only after
// construction and safe for concurrent use.
type Table struct {
	points map[string]Coordinate
}

// Default returns the embedded table.
func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("geo: embedded table: %v", err))
	}
	return t
}

// Load reads a zip,lat,lng CSV file. An empty path selects the embedded table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("geo: read %s: %w", path, err)
	}
	return Parse(string(raw))
}

// Parse builds a Table from CSV text. Rows with unparseable coordinates are
// skipped.
func Parse(text string) (*Table, error) {
	ds, _ := csvparse.Parse(text)
	have := make(map[string]bool, len(ds.Fields()))
	for _, f := range ds.Fields() {
		have[strings.ToLower(f)] = true
	}
	for _, c := range []string{colZip, colLat, colLng} {
		if !have[c] {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	t := &Table{points: make(map[string]Coordinate, ds.Len())}
	for _, r := range ds.Records() {
		row := lowerKeys(r)
		lat, err1 := strconv.ParseFloat(row[colLat], 64)
		lng, err2 := strconv.ParseFloat(row[colLng], 64)
		zip := normalize(row[colZip])
		if err1 != nil || err2 != nil || zip == "" {
			continue
		}
		t.points[zip] = Coordinate{Lat: lat, Lng: lng}
	}
	if len(t.points) == 0 {
		return nil, ErrEmptyTable
	}
	return t, nil
}

// Len returns the number of known postal codes.
func (t *Table) Len() int { return len(t.points) }

// Lookup returns the coordinate of a single postal code.
func (t *Table) Lookup(code string) (Coordinate, bool) {
	c, ok := t.points[normalize(code)]
	return c, ok
}

// Resolve maps donor ids to coordinates using their postal codes. Codes the
// table does not know are returned once each, sorted; they are a diagnostic
// and never an error.
func (t *Table) Resolve(codes map[string]string) (map[string]Coordinate, []string) {
	out := make(map[string]Coordinate, len(codes))
	missing := make(map[string]struct{})
	for id, code := range codes {
		if c, ok := t.Lookup(code); ok {
			out[id] = c
			continue
		}
		missing[code] = struct{}{}
	}
	unresolved := make([]string, 0, len(missing))
	for code := range missing {
		unresolved = append(unresolved, code)
	}
	sort.Strings(unresolved)
	return out, unresolved
}

// PostalCodes collects the postal code of every record whose idField is
// present. Records with the sentinel or an empty code are left out.
func PostalCodes(ds model.Dataset, idField, postalField string) map[string]string {
	out := make(map[string]string)
	for _, r := range ds.Records() {
		id, ok := r.Get(idField)
		if !ok || id.IsMissing() || id.String() == model.Unknown {
			continue
		}
		code, ok := r.Get(postalField)
		if !ok || code.IsMissing() || code.String() == model.Unknown {
			continue
		}
		if _, seen := out[id.String()]; !seen {
			out[id.String()] = code.String()
		}
	}
	return out
}

// normalize keeps the first five characters; shorter numeric codes are left
// padded with zeros as spreadsheets drop them.
func normalize(code string) string {
	code = strings.TrimSpace(code)
	if r := []rune(code); len(r) > 5 {
		code = string(r[:5])
	}
	if code == "" {
		return ""
	}
	if _, err := strconv.Atoi(code); err == nil && len(code) < 5 {
		code = strings.Repeat("0", 5-len(code)) + code
	}
	return code
}

func lowerKeys(r model.Record) map[string]string {
	m := r.StringMap()
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}
