package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ATTENDANCE_TEACHER_THRESHOLD", "85")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 75.0, cfg.Attendance.StudentThreshold)
	assert.Equal(t, 85.0, cfg.Attendance.TeacherThreshold)
	assert.Equal(t, 30, cfg.Attendance.LowWindowDays)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, []string{"image/jpeg", "image/png", "image/webp"}, cfg.Uploads.AllowedMIMEs)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.Timezone = "Asia/Kolkata"
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}
