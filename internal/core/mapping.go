package core

import (
	"bytes"
	"encoding/json"
)

// Mapping is an insertion-ordered map from identity key to an ordered,
// de-duplicated list of values.
//
// Value lists only grow. A Mapping is not safe for concurrent use; parallel
// runs build one Mapping per shard and combine them with Merge.
type Mapping struct {
	keys    []string
	entries map[string]*valueSet
}

type valueSet struct {
	values []string
	seen   map[string]struct{}
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{entries: make(map[string]*valueSet)}
}

// Add records key (if new) and appends the values not already present,
// preserving first-occurrence order. Empty keys are ignored.
func (m *Mapping) Add(key string, values ...string) {
	if key == "" {
		return
	}

	set, ok := m.entries[key]
	if !ok {
		set = &valueSet{values: []string{}, seen: make(map[string]struct{})}
		m.entries[key] = set
		m.keys = append(m.keys, key)
	}

	for _, v := range values {
		if _, dup := set.seen[v]; dup {
			continue
		}
		set.seen[v] = struct{}{}
		set.values = append(set.values, v)
	}
}

// Merge folds other into m: keys new to m are appended in other's order and
// each key's values are combined as an ordered-set union.
func (m *Mapping) Merge(other *Mapping) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		m.Add(k, other.entries[k].values...)
	}
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	return len(m.keys)
}

// Keys returns the keys in first-insertion order.
func (m *Mapping) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Values returns a copy of the values recorded for key.
func (m *Mapping) Values(key string) ([]string, bool) {
	set, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	return append([]string{}, set.values...), true
}

// MarshalJSON encodes the mapping as a JSON object with keys in insertion
// order and each value list as an array of strings. HTML characters are
// written as-is.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(k); err != nil {
			return nil, err
		}
		trimNewline(&buf)
		buf.WriteByte(':')

		if err := enc.Encode(m.entries[k].values); err != nil {
			return nil, err
		}
		trimNewline(&buf)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// trimNewline drops the newline json.Encoder appends after each value.
func trimNewline(buf *bytes.Buffer) {
	if n := buf.Len(); n > 0 && buf.Bytes()[n-1] == '\n' {
		buf.Truncate(n - 1)
	}
}
