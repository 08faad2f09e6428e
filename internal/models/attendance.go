package models

import "time"

// AttendanceStatus is the outcome recorded for a person on a day.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	return s == AttendancePresent || s == AttendanceAbsent
}

// Population selects one of the two independent attendance stores.
type Population string

const (
	PopulationStudents Population = "students"
	PopulationTeachers Population = "teachers"
)

// Valid returns true for a known population.
func (p Population) Valid() bool {
	return p == PopulationStudents || p == PopulationTeachers
}

// AttendanceRecord is the single record a person may hold for a day. Students
// use TimeMarked; teachers use TimeIn and TimeOut.
type AttendanceRecord struct {
	ID         string           `db:"id" json:"id"`
	SubjectID  string           `db:"subject_id" json:"userId"`
	Date       Day              `db:"date" json:"date"`
	Status     AttendanceStatus `db:"status" json:"status"`
	TimeMarked string           `db:"time_marked" json:"timeMarked,omitempty"`
	TimeIn     string           `db:"time_in" json:"timeIn,omitempty"`
	TimeOut    string           `db:"time_out" json:"timeOut,omitempty"`
	MarkedBy   *string          `db:"marked_by" json:"markedBy,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updatedAt"`
}

// AttendanceStats summarises a subject's marked days in a range. Days without a
// record are not counted.
type AttendanceStats struct {
	SubjectID            string  `json:"userId"`
	StartDate            Day     `json:"startDate"`
	EndDate              Day     `json:"endDate"`
	TotalDays            int     `json:"totalDays"`
	PresentDays          int     `json:"presentDays"`
	AbsentDays           int     `json:"absentDays"`
	AttendancePercentage Percent `json:"attendancePercentage"`
}

// NewAttendanceStats derives totals and percentage from raw counts.
func NewAttendanceStats(subjectID string, start, end Day, present, absent int) AttendanceStats {
	total := present + absent
	return AttendanceStats{
		SubjectID:            subjectID,
		StartDate:            start,
		EndDate:              end,
		TotalDays:            total,
		PresentDays:          present,
		AbsentDays:           absent,
		AttendancePercentage: Percentage(present, total),
	}
}

// CohortFilter narrows a snapshot to one cohort. Grade and Group apply to
// students, Department to teachers.
type CohortFilter struct {
	Grade      string
	Group      StudentGroup
	Department string
}

// SnapshotEntry is one active person's standing on a day. RecordID and Status
// are nil for people with no record.
type SnapshotEntry struct {
	SubjectID  string            `db:"subject_id" json:"userId"`
	FullName   string            `db:"full_name" json:"fullName"`
	RollNumber string            `db:"roll_number" json:"rollNumber"`
	Cohort     string            `db:"cohort" json:"cohort"`
	RecordID   *string           `db:"record_id" json:"recordId,omitempty"`
	Status     *AttendanceStatus `db:"status" json:"status,omitempty"`
	TimeMarked *string           `db:"time_marked" json:"timeMarked,omitempty"`
}

// CohortSnapshot partitions a cohort's active members for a day.
type CohortSnapshot struct {
	Date      Day             `json:"date"`
	Total     int             `json:"total"`
	Present   []SnapshotEntry `json:"present"`
	Absent    []SnapshotEntry `json:"absent"`
	NotMarked []SnapshotEntry `json:"notMarked"`
}

// Partition splits joined rows into the three snapshot buckets.
func Partition(day Day, rows []SnapshotEntry) CohortSnapshot {
	snap := CohortSnapshot{
		Date:      day,
		Total:     len(rows),
		Present:   make([]SnapshotEntry, 0),
		Absent:    make([]SnapshotEntry, 0),
		NotMarked: make([]SnapshotEntry, 0),
	}
	for _, row := range rows {
		switch {
		case row.Status == nil:
			snap.NotMarked = append(snap.NotMarked, row)
		case *row.Status == AttendancePresent:
			snap.Present = append(snap.Present, row)
		default:
			snap.Absent = append(snap.Absent, row)
		}
	}
	return snap
}
