// Package csvparse turns delimited export text into a Dataset.
//
// Parsing is lenient: rows whose token count differs from the header are
// dropped and counted instead of failing the whole input.
package csvparse

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/okian/donorflow/internal/domain/model"
)

const utf8BOM = "\ufeff"

// Diagnostics describes what the parser skipped.
type Diagnostics struct {
	// Rows is the number of records kept.
	Rows int `json:"rows"`
	// Dropped is the number of data rows skipped for a token count mismatch
	// or an untokenizable line.
	Dropped int `json:"dropped"`
	// DroppedLines lists the 1-based input line numbers of dropped rows.
	DroppedLines []int `json:"dropped_lines,omitempty"`
}

type parser struct {
	delim rune
}

// Parse splits text into a header and records. Blank lines are ignored and
// both \n and \r\n line endings are accepted. Empty input yields an empty
// Dataset.
func Parse(text string, opts ...Option) (model.Dataset, Diagnostics) {
	p := &parser{delim: ','}
	for _, opt := range opts {
		opt(p)
	}

	var (
		diag    Diagnostics
		header  []string
		records []model.Record
	)
	text = strings.TrimPrefix(text, utf8BOM)
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		tokens, err := p.tokenize(line)
		if header == nil {
			if err != nil {
				// An untokenizable header leaves nothing to map rows onto.
				return model.Dataset{}, diag
			}
			header = uniqueNames(tokens)
			continue
		}
		if err != nil || len(tokens) != len(header) {
			diag.Dropped++
			diag.DroppedLines = append(diag.DroppedLines, i+1)
			continue
		}
		rec := model.NewRecord(len(header))
		for j, name := range header {
			rec.Set(name, model.String(tokens[j]))
		}
		records = append(records, rec)
	}

	diag.Rows = len(records)
	return model.NewDataset(header, records), diag
}

// ParseReader reads r fully and parses its content.
func ParseReader(r io.Reader, opts ...Option) (model.Dataset, Diagnostics, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return model.Dataset{}, Diagnostics{}, fmt.Errorf("read input: %w", err)
	}
	ds, diag := Parse(string(b), opts...)
	return ds, diag, nil
}

// tokenize splits one line into trimmed tokens, honouring quoted spans.
func (p *parser) tokenize(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = p.delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	tokens, err := r.Read()
	if err != nil {
		return nil, err
	}
	for i, t := range tokens {
		tokens[i] = strings.TrimSpace(t)
	}
	return tokens, nil
}

// uniqueNames disambiguates repeated or blank header names so no column is
// shadowed by another.
func uniqueNames(names []string) []string {
	out := make([]string, len(names))
	seen := make(map[string]int, len(names))
	for i, n := range names {
		if n == "" {
			n = fmt.Sprintf("column_%d", i+1)
		}
		base := n
		for seen[n] > 0 {
			seen[base]++
			n = fmt.Sprintf("%s_%d", base, seen[base])
		}
		seen[n]++
		out[i] = n
	}
	return out
}
