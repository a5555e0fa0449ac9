package mockdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is one row: field name to value.
//
// Values are the JSON kinds: nil, bool, numbers (any Go integer or float
// type, or json.Number), string, []any, map[string]any and Record.
type Record map[string]any

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = cloneValue(v)
	}
	return c
}

// Merge returns a copy of r with every field of values set over it.
func (r Record) Merge(values Record) Record {
	c := r.Clone()
	if c == nil {
		c = Record{}
	}
	for k, v := range values {
		c[k] = cloneValue(v)
	}
	return c
}

// String returns the field as a string, or "" when absent.
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return toString(v)
	}
}

// Int returns the field as an integer and whether it was numeric.
func (r Record) Int(field string) (int64, bool) {
	n, ok := toNumber(r[field])
	if !ok {
		return 0, false
	}
	return int64(n), true
}

// Decode converts the record into v through its JSON representation.
func (r Record) Decode(v any) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}

// ToRecord converts v into a Record through its JSON representation.
//
// Fields tagged omitempty that hold zero values are left out, which makes
// typed structs usable as partial updates.
func ToRecord(v any) (Record, error) {
	if r, ok := v.(Record); ok {
		return r.Clone(), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	var r Record
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to convert %T to a record: %w", v, err)
	}
	normalizeNumbers(r)
	return r, nil
}

// normalizeNumbers replaces json.Number values with int64 when integral,
// float64 otherwise, so records built from structs compare like seed rows.
func normalizeNumbers(r Record) {
	for k, v := range r {
		r[k] = normalizeValue(v)
	}
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return string(t)
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeValue(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeValue(e)
		}
		return t
	default:
		return v
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Record:
		return t.Clone()
	case map[string]any:
		return map[string]any(Record(t).Clone())
	case []Record:
		c := make([]Record, len(t))
		for i, e := range t {
			c[i] = e.Clone()
		}
		return c
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = cloneValue(e)
		}
		return c
	default:
		return v
	}
}

func cloneRecords(rows []Record) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
