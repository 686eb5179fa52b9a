package model

import "encoding/json"

// Dataset is an ordered sequence of records together with the ordered field
// list it was built with. Stages never modify a Dataset in place.
type Dataset struct {
	fields  []string
	records []Record
}

// NewDataset copies fields and records into a new Dataset.
func NewDataset(fields []string, records []Record) Dataset {
	d := Dataset{
		fields:  make([]string, len(fields)),
		records: make([]Record, len(records)),
	}
	copy(d.fields, fields)
	copy(d.records, records)
	return d
}

// Fields returns the dataset schema in order.
func (d Dataset) Fields() []string {
	out := make([]string, len(d.fields))
	copy(out, d.fields)
	return out
}

// Records returns the records in order. The slice is a copy; the records
// themselves must be cloned before modification.
func (d Dataset) Records() []Record {
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

// Len returns the number of records.
func (d Dataset) Len() int { return len(d.records) }

// IsEmpty reports whether d has no records.
func (d Dataset) IsEmpty() bool { return len(d.records) == 0 }

// At returns the i-th record.
func (d Dataset) At(i int) Record { return d.records[i] }

// AllFields returns the schema followed by any record key missing from it,
// in first-seen order.
func (d Dataset) AllFields() []string {
	seen := make(map[string]struct{}, len(d.fields))
	out := make([]string, 0, len(d.fields))
	for _, f := range d.fields {
		if _, ok := seen[f]; !ok {
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	for _, r := range d.records {
		for _, k := range r.keys {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				out = append(out, k)
			}
		}
	}
	return out
}

// Equal reports whether d and o have the same schema and equal records.
func (d Dataset) Equal(o Dataset) bool {
	if len(d.fields) != len(o.fields) || len(d.records) != len(o.records) {
		return false
	}
	for i, f := range d.fields {
		if o.fields[i] != f {
			return false
		}
	}
	for i, r := range d.records {
		if !r.Equal(o.records[i]) {
			return false
		}
	}
	return true
}

// StringMaps renders every record as a name to text map.
func (d Dataset) StringMaps() []map[string]string {
	out := make([]map[string]string, len(d.records))
	for i, r := range d.records {
		out[i] = r.StringMap()
	}
	return out
}

// Head returns a Dataset with at most n leading records.
func (d Dataset) Head(n int) Dataset {
	if n < 0 || n > len(d.records) {
		n = len(d.records)
	}
	return NewDataset(d.fields, d.records[:n])
}

// MarshalJSON encodes d as a JSON array of records.
func (d Dataset) MarshalJSON() ([]byte, error) {
	if d.records == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.records)
}

// UnmarshalJSON decodes a JSON array of records. The schema is rebuilt from
// the record keys in first-seen order.
func (d *Dataset) UnmarshalJSON(b []byte) error {
	var recs []Record
	if err := json.Unmarshal(b, &recs); err != nil {
		return err
	}
	if recs == nil {
		*d = Dataset{}
		return nil
	}
	*d = Dataset{fields: Dataset{records: recs}.AllFields(), records: recs}
	return nil
}
