package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/safar/crm-store/internal/config"
)

const pingTimeout = 5 * time.Second

// NewConnection opens the CRM database pool and verifies it answers a ping.
// Sessions carry cfg.ApplicationName unless the DSN already names one.
func NewConnection(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := withApplicationName(cfg.URL, cfg.ApplicationName)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database %s: %w", redact(dsn), err)
	}

	return db, nil
}

// withApplicationName accepts both URL and key=value connection strings.
func withApplicationName(dsn, name string) (string, error) {
	if name == "" || strings.Contains(dsn, "application_name") {
		return dsn, nil
	}

	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return strings.TrimSpace(dsn + " application_name=" + name), nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("application_name", name)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// redact hides the password of URL connection strings for error messages.
func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return "(dsn)"
	}
	return u.Redacted()
}
