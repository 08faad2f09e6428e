package models

import (
	"math"
	"strconv"
)

// Percent keeps full precision in memory and rounds to two decimals only when serialized.
type Percent float64

// Percentage returns part/total*100, defined as 0 when total is 0.
func Percentage(part, total int) Percent {
	if total <= 0 {
		return 0
	}
	return Percent(float64(part) / float64(total) * 100)
}

// Rounded returns the value rounded half away from zero to two decimals.
func (p Percent) Rounded() float64 {
	v := float64(p)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

// MarshalJSON emits the presentation value.
func (p Percent) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, p.Rounded(), 'f', -1, 64), nil
}

// Below reports whether the value is strictly under threshold.
func (p Percent) Below(threshold float64) bool {
	return float64(p) < threshold
}
