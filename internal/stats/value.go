// Package stats provides the summary statistics used to aggregate simulation
// trials: mean, sample standard deviation, continuity-corrected proportions,
// Wilson score intervals, and density histograms.
//
// Statistics that cannot be computed from the available data (an empty
// sample, a single point for a sample variance) are reported as an undefined
// Value rather than NaN, so zero and "undefined" stay distinct.
package stats

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Value is a statistic that may be undefined.
type Value struct {
	V  float64
	OK bool
}

// Some returns a defined value. Non-finite inputs yield an undefined value.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{V: v, OK: true}
}

// None returns an undefined value.
func None() Value {
	return Value{}
}

// Fixed formats the value with the given number of decimals, or "undefined".
func (v Value) Fixed(decimals int) string {
	if !v.OK {
		return "undefined"
	}
	return strconv.FormatFloat(v.V, 'f', decimals, 64)
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if !v.OK {
		return "undefined"
	}
	return strconv.FormatFloat(v.V, 'g', -1, 64)
}

// MarshalJSON encodes an undefined value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.OK {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

// UnmarshalJSON decodes null as an undefined value.
func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}
