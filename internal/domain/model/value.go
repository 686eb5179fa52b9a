// Package model contains the record types passed between pipeline stages.
package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Unknown is the sentinel written in place of missing non-numeric values.
const Unknown = "unknown"

// DateLayout is the canonical rendering of date values.
const DateLayout = "2006-01-02"

// Kind tells which variant a Value holds.
type Kind uint8

// Value kinds.
const (
	KindString Kind = iota
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

// Value holds exactly one of a string, a number or a date.
// The zero Value is the empty string.
type Value struct {
	kind Kind
	str  string
	num  float64
	date time.Time
}

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric Value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Date returns a date Value truncated to its UTC calendar day.
func Date(t time.Time) Value { return Value{kind: KindDate, date: Day(t)} }

// Day truncates t to midnight of its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// Float returns the numeric payload. ok is false for non-numeric values.
func (v Value) Float() (f float64, ok bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Time returns the date payload. ok is false for non-date values.
func (v Value) Time() (t time.Time, ok bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.date, true
}

// IsMissing reports whether v is a string that is empty after trimming.
func (v Value) IsMissing() bool {
	return v.kind == KindString && strings.TrimSpace(v.str) == ""
}

// String renders v as text. Numbers use the shortest exact form and dates
// use DateLayout.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindDate:
		return v.date.Format(DateLayout)
	default:
		return v.str
	}
}

// Equal reports whether v and o hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindDate:
		return v.date.Equal(o.date)
	default:
		return v.str == o.str
	}
}

// MarshalJSON encodes numbers as JSON numbers and everything else as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.String())
}
