package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tuition-center-api/pkg/config"
)

func TestDriverName(t *testing.T) {
	name, err := DriverName(config.DatabaseConfig{})
	require.NoError(t, err)
	assert.Equal(t, DriverPQ, name)

	name, err = DriverName(config.DatabaseConfig{Driver: "pgx"})
	require.NoError(t, err)
	assert.Equal(t, DriverPGX, name)

	_, err = DriverName(config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "tc", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=tc sslmode=disable", dsn)
}
