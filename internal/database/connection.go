package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Driver names as registered with database/sql.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// ParseURL maps DATABASE_URL to a driver name and DSN.
// postgres:// and postgresql:// use lib/pq; sqlite://, file: and bare paths use sqlite3.
func ParseURL(url string) (driver, dsn string, err error) {
	url = strings.TrimSpace(url)
	switch {
	case url == "":
		return "", "", fmt.Errorf("database URL is empty")
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, url, nil
	case strings.HasPrefix(url, "sqlite://"):
		return DriverSQLite, strings.TrimPrefix(url, "sqlite://"), nil
	case strings.HasPrefix(url, "sqlite3://"):
		return DriverSQLite, strings.TrimPrefix(url, "sqlite3://"), nil
	case strings.Contains(url, "://"):
		return "", "", fmt.Errorf("unsupported database URL scheme in %q", redact(url))
	default:
		return DriverSQLite, url, nil
	}
}

// Open connects to the database named by url and creates the schema.
func Open(ctx context.Context, url string) (*sqlx.DB, error) {
	driver, dsn, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the tables this bot needs if they don't exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == DriverPostgres {
		schema = postgresSchema
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

var sqliteSchema = []string{`
	CREATE TABLE IF NOT EXISTS quiz_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		grammar_point VARCHAR(255) NOT NULL,
		question_text TEXT NOT NULL,
		correct_answer TEXT NOT NULL,
		explanation TEXT NOT NULL,
		asked_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_history_asked_at ON quiz_history (asked_at DESC, id DESC)`,
}

var postgresSchema = []string{`
	CREATE TABLE IF NOT EXISTS quiz_history (
		id SERIAL PRIMARY KEY,
		grammar_point VARCHAR(255) NOT NULL,
		question_text TEXT NOT NULL,
		correct_answer TEXT NOT NULL,
		explanation TEXT NOT NULL,
		asked_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_history_asked_at ON quiz_history (asked_at DESC, id DESC)`,
}

func ensureDir(dsn string) error {
	path := dsn
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimPrefix(path, "file:")
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// redact hides the password part of a URL for error messages.
func redact(url string) string {
	at := strings.LastIndexByte(url, '@')
	scheme := strings.Index(url, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return url
	}
	return url[:scheme+3] + "***" + url[at:]
}
