package field

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Map is an insertion-ordered association of normalized keys to Values.
// Setting an existing key replaces the value but keeps the key's original
// position, so iteration order is the first-seen order of keys. A plain
// Go map would make downstream output ordering non-deterministic.
type Map struct {
	keys  []string
	index map[string]int
	vals  []Value
}

// NewMap returns an empty ordered map.
func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

// Set writes key to v. Last write wins; the key keeps its first-seen
// position.
func (m *Map) Set(key string, v Value) {
	if i, ok := m.index[key]; ok {
		m.vals[i] = v
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, v)
}

// Get returns the value for key and whether it is present.
func (m *Map) Get(key string) (Value, bool) {
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.vals[i], true
}

// Keys returns the keys in insertion order. The returned slice is shared;
// callers must not mutate it.
func (m *Map) Keys() []string {
	return m.keys
}

// Len returns the number of keys.
func (m *Map) Len() int {
	return len(m.keys)
}

// MarshalJSON emits the entries as a JSON object in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", key, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := MarshalValue(m.vals[i])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", key, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Labels is an insertion-ordered association of normalized keys to their
// original human-readable labels. It may contain keys that never received
// a field value: a matrix-style label records its provenance the moment it
// is seen, even if no rows ever accumulate under it.
type Labels struct {
	keys  []string
	index map[string]int
	vals  []string
}

// NewLabels returns an empty ordered label map.
func NewLabels() *Labels {
	return &Labels{index: make(map[string]int)}
}

// Set records the original label for key. Last write wins; the key keeps
// its first-seen position.
func (l *Labels) Set(key, label string) {
	if i, ok := l.index[key]; ok {
		l.vals[i] = label
		return
	}
	l.index[key] = len(l.keys)
	l.keys = append(l.keys, key)
	l.vals = append(l.vals, label)
}

// Get returns the original label for key and whether it is present.
func (l *Labels) Get(key string) (string, bool) {
	i, ok := l.index[key]
	if !ok {
		return "", false
	}
	return l.vals[i], true
}

// Keys returns the keys in insertion order. The returned slice is shared;
// callers must not mutate it.
func (l *Labels) Keys() []string {
	return l.keys
}

// Len returns the number of keys.
func (l *Labels) Len() int {
	return len(l.keys)
}

// Clone returns an independent copy preserving order.
func (l *Labels) Clone() *Labels {
	c := NewLabels()
	for _, k := range l.keys {
		v, _ := l.Get(k)
		c.Set(k, v)
	}
	return c
}

// MarshalJSON emits the entries as a JSON object in insertion order.
func (l *Labels) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range l.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", key, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(l.vals[i])
		if err != nil {
			return nil, fmt.Errorf("marshal label for key %q: %w", key, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
