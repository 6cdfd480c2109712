package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Company is the single company whose cap table is tracked.
type Company struct {
	// Name is the company name.
	Name string `json:"name"`

	// ShareTypes maps a share-type name to its value per share.
	// A nil value means the value has not been set.
	ShareTypes ShareValues `json:"shareTypes"`
}

// Clone returns a copy whose ShareTypes map is independent of c.
func (c Company) Clone() Company {
	c.ShareTypes = c.ShareTypes.Clone()
	return c
}

// ShareValues maps share-type names to an optional value per share.
type ShareValues map[string]*float64

// DefaultShareValues returns the canonical share types with no values set.
func DefaultShareValues() ShareValues {
	v := make(ShareValues, len(ShareTypes))
	for _, t := range ShareTypes {
		v[string(t)] = nil
	}
	return v
}

// Value returns the value per share for t and whether it is defined.
func (v ShareValues) Value(t ShareType) (float64, bool) {
	p, ok := v[string(t)]
	if !ok || p == nil {
		return 0, false
	}
	return *p, true
}

// Multiplier returns the weight of one share of type t. Unmapped and
// undefined types weigh 1.0.
func (v ShareValues) Multiplier(t ShareType) float64 {
	if val, ok := v.Value(t); ok {
		return val
	}
	return 1.0
}

// Clone deep-copies the map and its values.
func (v ShareValues) Clone() ShareValues {
	if v == nil {
		return nil
	}
	out := make(ShareValues, len(v))
	for k, p := range v {
		if p != nil {
			val := *p
			p = &val
		}
		out[k] = p
	}
	return out
}

// Keys returns the share-type names held in v, sorted.
func (v ShareValues) Keys() []string {
	return slices.Sorted(maps.Keys(v))
}

// UnmarshalJSON accepts either an object ({"common": 2}) or a list of
// [key, value] pairs ([["common", 2], ["preferred", null]]), which is what a
// client gets when it serialises map entries. Values may be numbers, null,
// numeric strings, or the empty string (meaning unset).
func (v *ShareValues) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*v = nil
		return nil
	}

	raw := map[string]json.RawMessage{}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var pairs [][]json.RawMessage
		if err := json.Unmarshal(trimmed, &pairs); err != nil {
			return fmt.Errorf("share types: %w", err)
		}
		for i, pair := range pairs {
			if len(pair) != 2 {
				return fmt.Errorf("share types: entry %d must be a [key, value] pair", i)
			}
			var key string
			if err := json.Unmarshal(pair[0], &key); err != nil {
				return fmt.Errorf("share types: entry %d key: %w", i, err)
			}
			raw[key] = pair[1]
		}
	} else if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("share types: %w", err)
	}

	out := make(ShareValues, len(raw))
	for key, msg := range raw {
		val, err := parseShareValue(msg)
		if err != nil {
			return fmt.Errorf("share types: %q: %w", key, err)
		}
		out[key] = val
	}
	*v = out
	return nil
}

func parseShareValue(msg json.RawMessage) (*float64, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 || bytes.Equal(msg, []byte("null")) {
		return nil, nil
	}
	if msg[0] == '"' {
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return nil, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", s)
		}
		return &f, nil
	}
	var f float64
	if err := json.Unmarshal(msg, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
