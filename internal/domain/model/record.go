package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is an ordered mapping from field name to Value. Field order is the
// order in which names were first set.
//
// Records are shared between stages by value but the backing map is not
// copied; call Clone before Set on a record you did not build.
type Record struct {
	keys []string
	vals map[string]Value
}

// NewRecord returns an empty record sized for n fields.
func NewRecord(n int) Record {
	return Record{keys: make([]string, 0, n), vals: make(map[string]Value, n)}
}

// RecordOf builds a record of string values from alternating name/value
// pairs. A trailing name without a value is ignored.
func RecordOf(pairs ...string) Record {
	r := NewRecord(len(pairs) / 2)
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i], String(pairs[i+1]))
	}
	return r
}

// Get returns the value stored under name.
func (r Record) Get(name string) (Value, bool) {
	v, ok := r.vals[name]
	return v, ok
}

// Has reports whether name is present.
func (r Record) Has(name string) bool {
	_, ok := r.vals[name]
	return ok
}

// Keys returns the field names in order.
func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.keys) }

// Set stores v under name, appending name if it is new.
func (r *Record) Set(name string, v Value) {
	if r.vals == nil {
		r.vals = make(map[string]Value)
	}
	if _, ok := r.vals[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.vals[name] = v
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := NewRecord(len(r.keys))
	for _, k := range r.keys {
		out.Set(k, r.vals[k])
	}
	return out
}

// Merge returns a new record holding r overlaid with o. Values from o win on
// collision; names only present in o are appended in o's order.
func (r Record) Merge(o Record) Record {
	out := NewRecord(len(r.keys) + len(o.keys))
	for _, k := range r.keys {
		out.Set(k, r.vals[k])
	}
	for _, k := range o.keys {
		out.Set(k, o.vals[k])
	}
	return out
}

// Equal reports whether r and o have the same fields in the same order with
// equal values.
func (r Record) Equal(o Record) bool {
	if len(r.keys) != len(o.keys) {
		return false
	}
	for i, k := range r.keys {
		if o.keys[i] != k || !r.vals[k].Equal(o.vals[k]) {
			return false
		}
	}
	return true
}

// StringMap renders every value as text.
func (r Record) StringMap() map[string]string {
	out := make(map[string]string, len(r.keys))
	for _, k := range r.keys {
		out[k] = r.vals[k].String()
	}
	return out
}

// MarshalJSON encodes r as a JSON object preserving field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := r.vals[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object preserving key order. Numbers
// become numeric values; strings, booleans and null are kept as text.
func (r *Record) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: not an object", ErrInvalidRecord)
	}
	out := NewRecord(0)
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return fmt.Errorf("%w: field %q: %w", ErrInvalidRecord, name, err)
			}
			out.Set(name, Number(f))
		case string:
			out.Set(name, String(v))
		case bool:
			out.Set(name, String(strconv.FormatBool(v)))
		case nil:
			out.Set(name, String(""))
		default:
			return fmt.Errorf("%w: field %q is nested", ErrInvalidRecord, name)
		}
	}
	*r = out
	return nil
}
