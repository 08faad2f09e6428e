package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentageZeroTotal(t *testing.T) {
	p := Percentage(0, 0)
	assert.Equal(t, Percent(0), p)
	assert.False(t, math.IsNaN(float64(p)))
}

func TestPercentageKeepsPrecision(t *testing.T) {
	p := Percentage(2, 3)
	assert.InDelta(t, 66.666666, float64(p), 0.0001)
	assert.Equal(t, 66.67, p.Rounded())

	out, err := json.Marshal(map[string]Percent{"attendancePercentage": p})
	require.NoError(t, err)
	assert.JSONEq(t, `{"attendancePercentage":66.67}`, string(out))
}

func TestPercentBelow(t *testing.T) {
	assert.True(t, Percentage(74, 100).Below(75))
	assert.False(t, Percentage(3, 4).Below(75))
	assert.Equal(t, 0.0, Percent(math.NaN()).Rounded())
}
