package models

import (
	"bytes"
	"encoding/json"
	"math"
)

// Float is a float64 that encodes NaN as JSON null. Reductions over an
// empty group yield NaN, and the gap must survive serialization instead of
// collapsing to 0.
type Float float64

// NaN returns the undefined marker.
func NaN() Float { return Float(math.NaN()) }

// IsNaN reports whether f is undefined.
func (f Float) IsNaN() bool { return math.IsNaN(float64(f)) }

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (f *Float) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = NaN()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}
