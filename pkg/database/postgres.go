package database

import (
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/tuition-center-api/pkg/config"
)

const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

// DSN renders the keyword/value connection string understood by both drivers.
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

// DriverName normalises the configured driver, defaulting to lib/pq.
func DriverName(cfg config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case "", DriverPQ, "pq":
		return DriverPQ, nil
	case DriverPGX:
		return DriverPGX, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewPostgres returns a configured PostgreSQL client.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	driver, err := DriverName(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, DSN(cfg))
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
