package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestTeacherCapabilities(t *testing.T) {
	cases := []struct {
		name                         string
		teacher                      Teacher
		auth, cohort, administration bool
	}{
		{"pending", Teacher{IsActive: true}, true, false, false},
		{"verified", Teacher{IsActive: true, IsVerified: true}, true, true, false},
		{"admin", Teacher{IsActive: true, IsAdmin: true}, true, true, true},
		{"deactivated admin", Teacher{IsActive: false, IsAdmin: true, IsVerified: true}, false, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.auth, tc.teacher.CanAuthenticate())
			assert.Equal(t, tc.cohort, tc.teacher.CanAccessCohortData())
			assert.Equal(t, tc.administration, tc.teacher.CanAdminister())
		})
	}

	var missing *Teacher
	assert.False(t, missing.CanAuthenticate())
}

func TestResolveMentor(t *testing.T) {
	assert.Nil(t, ResolveMentor(nil, nil))
	assert.Nil(t, ResolveMentor(nil, strPtr("  ")))
	assert.Equal(t, "Ms. Rao", *ResolveMentor(nil, strPtr(" Ms. Rao ")))
	assert.Equal(t, "Ms. Rao", *ResolveMentor(strPtr("Ms. Rao"), nil))
	assert.Equal(t, "Ms. Rao", *ResolveMentor(strPtr("Ms. Rao"), strPtr("")))
	assert.Equal(t, "Mr. Das", *ResolveMentor(strPtr("Ms. Rao"), strPtr("Mr. Das")))

	existing := strPtr("Ms. Rao")
	resolved := ResolveMentor(existing, nil)
	*resolved = "changed"
	assert.Equal(t, "Ms. Rao", *existing)
}

func TestHomeworkTransitions(t *testing.T) {
	assert.True(t, HomeworkPending.CanTransitionTo(HomeworkCompleted))
	assert.True(t, HomeworkCompleted.CanTransitionTo(HomeworkCompleted))
	assert.False(t, HomeworkCompleted.CanTransitionTo(HomeworkPending))
}

func TestPartition(t *testing.T) {
	present, absent := AttendancePresent, AttendanceAbsent
	snap := Partition(NewDay(2025, time.May, 1), []SnapshotEntry{
		{SubjectID: "s1", Status: &present, RecordID: strPtr("r1")},
		{SubjectID: "s2", Status: &absent, RecordID: strPtr("r2")},
		{SubjectID: "s3"},
	})
	assert.Equal(t, 3, snap.Total)
	require.Len(t, snap.Present, 1)
	require.Len(t, snap.Absent, 1)
	require.Len(t, snap.NotMarked, 1)
	assert.Equal(t, "s3", snap.NotMarked[0].SubjectID)

	empty := Partition(NewDay(2025, time.May, 1), nil)
	assert.NotNil(t, empty.Present)
	assert.Equal(t, 0, empty.Total)
}

func TestCohortRollupNeverCountsUnmarkedAsAbsent(t *testing.T) {
	row := CohortRollup{Cohort: "10", Total: 10, Present: 3, Absent: 1}.Finalize()
	assert.Equal(t, 4, row.Marked)
	assert.Equal(t, 6, row.NotMarked)
	assert.Equal(t, 75.0, row.Percentage.Rounded())

	empty := CohortRollup{Cohort: "11"}.Finalize()
	assert.Equal(t, Percent(0), empty.Percentage)

	total := Combine("students", []CohortRollup{row, {Total: 5, Present: 1, Absent: 0}})
	assert.Equal(t, 15, total.Total)
	assert.Equal(t, 5, total.Marked)
	assert.Equal(t, 80.0, total.Percentage.Rounded())
}

func TestFlagLowAttendance(t *testing.T) {
	entries := FlagLowAttendance([]SubjectTotals{
		{SubjectID: "a", Present: 2, Absent: 1},
		{SubjectID: "b", Present: 3, Absent: 1},
		{SubjectID: "c"},
	}, 75)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].SubjectID)
	assert.Equal(t, 3, entries[0].TotalDays)
}

func TestAttendanceStatsZeroDays(t *testing.T) {
	stats := NewAttendanceStats("s1", NewDay(2025, 5, 1), NewDay(2025, 5, 3), 0, 0)
	assert.Equal(t, 0, stats.TotalDays)
	assert.Equal(t, Percent(0), stats.AttendancePercentage)
}

func TestReportJobParamsRoundTrip(t *testing.T) {
	params := ReportJobParams{Population: PopulationStudents, Format: ReportFormatCSV, StartDate: NewDay(2025, 5, 1), EndDate: NewDay(2025, 5, 31)}
	v, err := params.Value()
	require.NoError(t, err)

	var scanned ReportJobParams
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, params, scanned)
}
