package models

import "time"

// CohortRollup aggregates one cohort's attendance for a day. Percentage is
// Present over Marked; NotMarked is reported separately and never counted as absent.
type CohortRollup struct {
	Cohort     string  `db:"cohort" json:"cohort"`
	Total      int     `db:"total" json:"total"`
	Marked     int     `db:"marked" json:"marked"`
	Present    int     `db:"present" json:"present"`
	Absent     int     `db:"absent" json:"absent"`
	NotMarked  int     `db:"-" json:"notMarked"`
	Percentage Percent `db:"-" json:"percentage"`
}

// Finalize derives NotMarked and Percentage from the counted columns.
func (r CohortRollup) Finalize() CohortRollup {
	r.Marked = r.Present + r.Absent
	r.NotMarked = r.Total - r.Marked
	if r.NotMarked < 0 {
		r.NotMarked = 0
	}
	r.Percentage = Percentage(r.Present, r.Marked)
	return r
}

// Combine sums rollups into a single total row.
func Combine(cohort string, rows []CohortRollup) CohortRollup {
	total := CohortRollup{Cohort: cohort}
	for _, row := range rows {
		total.Total += row.Total
		total.Present += row.Present
		total.Absent += row.Absent
	}
	return total.Finalize()
}

// AttendanceOverview is the admin dashboard rollup for a day.
type AttendanceOverview struct {
	Date        Day            `json:"date"`
	Students    CohortRollup   `json:"students"`
	Teachers    CohortRollup   `json:"teachers"`
	Grades      []CohortRollup `json:"grades"`
	Groups      []CohortRollup `json:"groups"`
	Departments []CohortRollup `json:"departments"`
}

// TrendPeriod selects the length of a trend series.
type TrendPeriod string

const (
	TrendWeekly  TrendPeriod = "weekly"
	TrendMonthly TrendPeriod = "monthly"
)

// Days returns the number of calendar days covered by the period.
func (p TrendPeriod) Days() int {
	if p == TrendMonthly {
		return 30
	}
	return 7
}

// Valid returns true for a supported period.
func (p TrendPeriod) Valid() bool {
	return p == TrendWeekly || p == TrendMonthly
}

// TrendPoint is one day in a trend series.
type TrendPoint struct {
	Date       Day     `db:"date" json:"date"`
	Present    int     `db:"present" json:"present"`
	Absent     int     `db:"absent" json:"absent"`
	Percentage Percent `db:"-" json:"percentage"`
}

// AttendanceTrend is a series holding one point per day that has records.
type AttendanceTrend struct {
	Population Population   `json:"population"`
	Period     TrendPeriod  `json:"period"`
	StartDate  Day          `json:"startDate"`
	EndDate    Day          `json:"endDate"`
	Points     []TrendPoint `json:"points"`
}

// SubjectTotals are per-person marked-day counts over a window.
type SubjectTotals struct {
	SubjectID  string `db:"subject_id" json:"userId"`
	FullName   string `db:"full_name" json:"fullName"`
	RollNumber string `db:"roll_number" json:"rollNumber"`
	Cohort     string `db:"cohort" json:"cohort"`
	Present    int    `db:"present" json:"presentDays"`
	Absent     int    `db:"absent" json:"absentDays"`
}

// LowAttendanceEntry flags a person under the threshold.
type LowAttendanceEntry struct {
	SubjectTotals
	TotalDays  int     `json:"totalDays"`
	Percentage Percent `json:"attendancePercentage"`
}

// LowAttendanceReport lists people whose windowed percentage is under threshold.
type LowAttendanceReport struct {
	Population Population           `json:"population"`
	WindowDays int                  `json:"windowDays"`
	Threshold  float64              `json:"threshold"`
	StartDate  Day                  `json:"startDate"`
	EndDate    Day                  `json:"endDate"`
	Entries    []LowAttendanceEntry `json:"entries"`
}

// FlagLowAttendance keeps subjects with at least one marked day whose
// percentage is strictly below threshold.
func FlagLowAttendance(totals []SubjectTotals, threshold float64) []LowAttendanceEntry {
	entries := make([]LowAttendanceEntry, 0)
	for _, t := range totals {
		marked := t.Present + t.Absent
		if marked == 0 {
			continue
		}
		pct := Percentage(t.Present, marked)
		if pct.Below(threshold) {
			entries = append(entries, LowAttendanceEntry{SubjectTotals: t, TotalDays: marked, Percentage: pct})
		}
	}
	return entries
}

// SystemMetrics is a point-in-time summary of process instrumentation.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	AttendanceMarks          uint64    `json:"attendanceMarks"`
	DuplicateMarks           uint64    `json:"duplicateMarks"`
	RateLimited              uint64    `json:"rateLimited"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
