package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	d, err := ParseDay("2025-05-23", kolkata)
	require.NoError(t, err)
	assert.Equal(t, "2025-05-23", d.String())

	// 20:00Z is already the next day in Kolkata.
	d, err = ParseDay("2025-05-23T20:00:00Z", kolkata)
	require.NoError(t, err)
	assert.Equal(t, "2025-05-24", d.String())

	_, err = ParseDay("23/05/2025", time.UTC)
	assert.Error(t, err)
	_, err = ParseDay("", time.UTC)
	assert.Error(t, err)
}

func TestDayArithmetic(t *testing.T) {
	d := NewDay(2025, time.February, 28)
	assert.Equal(t, "2025-03-01", d.AddDays(1).String())
	assert.Equal(t, "2025-01-31", NewDay(2025, time.February, 0).String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.False(t, d.Before(d))
	assert.Equal(t, 6, d.DaysUntil(d.AddDays(6)))
}

func TestDayStartUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5:30", 5*3600+1800)
	start := NewDay(2025, time.May, 23).Start(loc)
	assert.Equal(t, "2025-05-22T18:30:00Z", start.UTC().Format(time.RFC3339))
}

func TestDayJSONAndSQL(t *testing.T) {
	var payload struct {
		Date Day `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2025-05-01"}`), &payload))
	assert.Equal(t, NewDay(2025, time.May, 1), payload.Date)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-05-01"}`, string(out))

	v, err := payload.Date.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-05-01", v)

	var scanned Day
	require.NoError(t, scanned.Scan(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, payload.Date, scanned)
	require.NoError(t, scanned.Scan([]byte("2025-05-02")))
	assert.Equal(t, "2025-05-02", scanned.String())
	assert.Error(t, scanned.Scan(42))
}
