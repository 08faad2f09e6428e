package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-center-api/internal/models"
	"github.com/noah-isme/tuition-center-api/pkg/export"
	"github.com/noah-isme/tuition-center-api/pkg/storage"
)

type totalsStub struct {
	rows   []models.SubjectTotals
	err    error
	filter models.CohortFilter
	start  models.Day
	end    models.Day
}

func (s *totalsStub) SubjectTotals(ctx context.Context, start, end models.Day, filter models.CohortFilter) ([]models.SubjectTotals, error) {
	s.start, s.end, s.filter = start, end, filter
	return s.rows, s.err
}

func newExportServiceForTest(t *testing.T, students, teachers *totalsStub) (*ExportService, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewExportService(students, teachers, store, signer, ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())
	return svc, dir
}

func sampleTotals() []models.SubjectTotals {
	return []models.SubjectTotals{
		{SubjectID: "s-1", FullName: "Meena", RollNumber: "R-1", Cohort: "10-A", Present: 2, Absent: 1},
		{SubjectID: "s-2", FullName: "Arjun", RollNumber: "R-2", Cohort: "10-A", Present: 3, Absent: 0},
	}
}

func TestExportServiceGenerateStudentCSV(t *testing.T) {
	students := &totalsStub{rows: sampleTotals()}
	svc, dir := newExportServiceForTest(t, students, &totalsStub{})
	job := &models.ReportJob{
		ID: "job-1",
		Params: models.ReportJobParams{
			Population: models.PopulationStudents,
			Format:     models.ReportFormatCSV,
			StartDate:  models.NewDay(2025, 3, 1),
			EndDate:    models.NewDay(2025, 3, 31),
			Grade:      "10",
			Group:      models.GroupA,
		},
	}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "attendance_students_job-1.csv", result.RelativePath)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "10", students.filter.Grade)
	assert.Equal(t, models.GroupA, students.filter.Group)
	assert.Equal(t, models.NewDay(2025, 3, 1), students.start)

	content, err := os.ReadFile(filepath.Join(dir, result.RelativePath))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Roll Number,Name,Grade-Group,Present,Absent,Marked Days,Attendance (%)", lines[0])
	assert.Equal(t, "R-1,Meena,10-A,2,1,3,66.67", lines[1])
	assert.Equal(t, "R-2,Arjun,10-A,3,0,3,100.00", lines[2])
}

func TestExportServiceGenerateTeacherPDF(t *testing.T) {
	teachers := &totalsStub{rows: []models.SubjectTotals{{SubjectID: "t-1", FullName: "Priya", RollNumber: "T-1", Cohort: "Maths", Present: 4, Absent: 1}}}
	svc, dir := newExportServiceForTest(t, &totalsStub{}, teachers)
	job := &models.ReportJob{ID: "job-2", Params: models.ReportJobParams{
		Population: models.PopulationTeachers,
		Format:     models.ReportFormatPDF,
		StartDate:  models.NewDay(2025, 3, 1),
		EndDate:    models.NewDay(2025, 3, 31),
		Department: "Maths",
	}}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "Maths", teachers.filter.Department)

	info, err := os.Stat(filepath.Join(dir, result.RelativePath))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGeneratePropagatesErrors(t *testing.T) {
	svc, _ := newExportServiceForTest(t, &totalsStub{err: errors.New("db down")}, &totalsStub{})
	_, err := svc.Generate(context.Background(), &models.ReportJob{ID: "job-3", Params: models.ReportJobParams{Population: models.PopulationStudents, Format: models.ReportFormatCSV}})
	require.Error(t, err)

	_, err = svc.Generate(context.Background(), &models.ReportJob{ID: "job-4", Params: models.ReportJobParams{Population: models.PopulationStudents, Format: "xlsx"}})
	require.Error(t, err)
}

func TestExportServiceDownloadURLRoundTrip(t *testing.T) {
	svc, _ := newExportServiceForTest(t, &totalsStub{}, &totalsStub{})

	url, expiresAt, err := svc.DownloadURL("job-1", "attendance_students_job-1.csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/api/v1/reports/download/"))
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ParseToken(strings.TrimPrefix(url, "/api/v1/reports/download/"))
	require.NoError(t, err)
	assert.Equal(t, "job-1", claims.ReportID)
	assert.Equal(t, "attendance_students_job-1.csv", claims.Path)
}
