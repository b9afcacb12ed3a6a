package orm

import (
	"bytes"
	"encoding/json"
)

// Attributes is an insertion-ordered attribute bag.
// It stores whatever it is given; validation belongs to Model.Set.
type Attributes struct {
	keys   []string
	values map[string]any
}

// NewAttributes returns an empty bag.
func NewAttributes() *Attributes {
	return &Attributes{values: make(map[string]any)}
}

// Get returns the value stored under name and whether it is present.
func (a *Attributes) Get(name string) (any, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Set stores value under name, keeping the original position of existing keys.
func (a *Attributes) Set(name string, value any) {
	if _, ok := a.values[name]; !ok {
		a.keys = append(a.keys, name)
	}
	a.values[name] = value
}

// Has reports whether name is present with a non-nil value.
func (a *Attributes) Has(name string) bool {
	v, ok := a.values[name]
	return ok && v != nil
}

// Keys returns the attribute names in insertion order.
func (a *Attributes) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	return len(a.keys)
}

// Map returns a copy of the bag as a plain map.
func (a *Attributes) Map() map[string]any {
	out := make(map[string]any, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy.
func (a *Attributes) Clone() *Attributes {
	c := &Attributes{
		keys:   a.Keys(),
		values: a.Map(),
	}
	return c
}

// MarshalJSON encodes the bag as an object in insertion order.
func (a *Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(a.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
