// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package grid

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// KeyField is the JSON property that carries a row's identifier.
const KeyField = "key"

// Key identifies a row for its whole lifetime.
// Rows ingested at construction get their positional index, rows created
// by Add get the Counter value. Both are stored as decimal strings.
type Key string

// KeyFromInt formats an integer identifier.
func KeyFromInt(i int) Key {
	return Key(strconv.Itoa(i))
}

// Fields maps field IDs to values.
type Fields map[string]any

// Clone returns a shallow copy of the field map.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Row is one record of the grid.
type Row struct {
	Key    Key
	Fields Fields
}

// Get returns the value of a field, or nil when the field is absent.
func (r Row) Get(field string) any {
	if r.Fields == nil {
		return nil
	}
	return r.Fields[field]
}

// Clone returns a copy of the row that shares no map with the original.
func (r Row) Clone() Row {
	return Row{Key: r.Key, Fields: r.Fields.Clone()}
}

// Merge returns {...r, ...patch}. The key is never taken from the patch.
func (r Row) Merge(patch Fields) Row {
	out := r.Clone()
	for k, v := range patch {
		if k == KeyField {
			continue
		}
		out.Fields[k] = v
	}
	return out
}

// MarshalJSON flattens the row into one object with a "key" property.
func (r Row) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		m[k] = v
	}
	m[KeyField] = string(r.Key)
	return json.Marshal(m)
}

// UnmarshalJSON reads the flattened form written by MarshalJSON.
// Numeric keys are accepted and converted to their decimal string.
func (r *Row) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	r.Fields = make(Fields, len(m))
	for k, v := range m {
		if k != KeyField {
			r.Fields[k] = v
			continue
		}
		switch kv := v.(type) {
		case string:
			r.Key = Key(kv)
		case float64:
			r.Key = Key(strconv.FormatFloat(kv, 'f', -1, 64))
		default:
			return fmt.Errorf("row key has unsupported type %T", v)
		}
	}
	return nil
}

// RowList is the ordered collection of rows. Order is display order.
type RowList []Row

// Clone deep-copies the list so a receiver can keep it without observing
// later transitions.
func (l RowList) Clone() RowList {
	if l == nil {
		return RowList{}
	}
	out := make(RowList, len(l))
	for i, r := range l {
		out[i] = r.Clone()
	}
	return out
}

// IndexOf returns the position of the first row with the given key, or -1.
func (l RowList) IndexOf(key Key) int {
	for i, r := range l {
		if r.Key == key {
			return i
		}
	}
	return -1
}

// Find returns the row with the given key.
func (l RowList) Find(key Key) (Row, bool) {
	if i := l.IndexOf(key); i >= 0 {
		return l[i], true
	}
	return Row{}, false
}

// Keys returns the row keys in display order.
func (l RowList) Keys() []Key {
	keys := make([]Key, len(l))
	for i, r := range l {
		keys[i] = r.Key
	}
	return keys
}

// Records strips the keys, returning the field maps in order.
func (l RowList) Records() []Fields {
	out := make([]Fields, len(l))
	for i, r := range l {
		out[i] = r.Fields.Clone()
	}
	return out
}

// FormatValue renders a field value the way it is shown in a cell and
// seeded into an edit buffer.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(v)
	}
}

// ParseNumber parses text as an int when it has no fractional part and as a
// float64 otherwise.
func ParseNumber(text string) (any, error) {
	t := strings.TrimSpace(text)
	if i, err := strconv.Atoi(t); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// maxExactInt is the largest magnitude a float64 holds without losing
// integer precision.
const maxExactInt = 1 << 53

// NormalizeNumber turns integral float64 values, as produced by decoding
// JSON or reading a database, into ints. Other values pass through.
func NormalizeNumber(v any) any {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > maxExactInt {
		return v
	}
	return int(f)
}

// Normalize applies NormalizeNumber to every field value.
func (f Fields) Normalize() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = NormalizeNumber(v)
	}
	return out
}
