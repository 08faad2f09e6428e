package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// DayLayout is the wire and storage format of a Day.
const DayLayout = "2006-01-02"

// Day is a calendar date with no time-of-day component. It keys attendance
// records and the homework day feeds. The zero value is an unset day.
type Day struct {
	year  int
	month time.Month
	day   int
}

// NewDay normalises the given date, so NewDay(2025, 1, 32) is 2025-02-01.
func NewDay(year int, month time.Month, day int) Day {
	return DayOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC), time.UTC)
}

// DayOf returns the calendar day t falls on in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return Day{year: y, month: m, day: d}
}

// ParseDay accepts YYYY-MM-DD, or an RFC 3339 timestamp which is reduced to its day in loc.
func ParseDay(raw string, loc *time.Location) (Day, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Day{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(DayLayout, raw); err == nil {
		return DayOf(t, time.UTC), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return DayOf(t, loc), nil
}

// IsZero reports whether the day is unset.
func (d Day) IsZero() bool { return d.year == 0 && d.month == 0 && d.day == 0 }

// Start returns midnight of the day in loc.
func (d Day) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
}

// AddDays moves the day by n calendar days.
func (d Day) AddDays(n int) Day {
	return NewDay(d.year, d.month, d.day+n)
}

// Before reports whether d is strictly earlier than other.
func (d Day) Before(other Day) bool { return d.String() < other.String() }

// After reports whether d is strictly later than other.
func (d Day) After(other Day) bool { return other.Before(d) }

// DaysUntil returns the number of calendar days from d to other.
func (d Day) DaysUntil(other Day) int {
	return int(other.Start(time.UTC).Sub(d.Start(time.UTC)).Hours() / 24)
}

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

// MarshalJSON renders the day as "YYYY-MM-DD".
func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON parses "YYYY-MM-DD" or an RFC 3339 timestamp (taken as UTC).
func (d *Day) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(s, time.UTC)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the day as a DATE literal so no session timezone can shift it.
func (d Day) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan reads DATE columns from either driver.
func (d *Day) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Day{}
		return nil
	case time.Time:
		y, m, dd := v.Date()
		*d = Day{year: y, month: m, day: dd}
		return nil
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("unsupported type %T for Day", src)
	}
}

func (d *Day) scanString(s string) error {
	if len(s) < len(DayLayout) {
		return fmt.Errorf("invalid date %q", s)
	}
	t, err := time.Parse(DayLayout, s[:len(DayLayout)])
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	*d = DayOf(t, time.UTC)
	return nil
}
