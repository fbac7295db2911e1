package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/inversion-api/inversion-engine-sub011/internal/dialect"
	"github.com/inversion-api/inversion-engine-sub011/internal/results"
)

// drivers maps dialect names to database/sql driver names.
var drivers = map[string]string{
	"sqlite":   "sqlite3",
	"postgres": "pgx",
	"duckdb":   "duckdb",
}

// DriverFor returns the database/sql driver for a dialect.
func DriverFor(dialectName string) (string, error) {
	driver, ok := drivers[dialectName]
	if !ok {
		return "", fmt.Errorf("no database driver for dialect %q", dialectName)
	}
	return driver, nil
}

// SQL executes relational statements on a *sql.DB.
type SQL struct {
	db *sql.DB
}

// NewSQL wraps an open database. The caller keeps ownership of db.
func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

// Open connects to dsn with the driver for dialectName.
//
// SQLite connections are limited to one and opened read-only through
// PRAGMA query_only, with a 5 second busy timeout.
func Open(dialectName, dsn string) (*SQL, error) {
	driver, err := DriverFor(dialectName)
	if err != nil {
		return nil, err
	}
	return OpenDriver(driver, dsn)
}

// OpenDriver is Open with an explicit database/sql driver name.
func OpenDriver(driver, dsn string) (*SQL, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}
	slog.Debug("database opened", "driver", driver)
	return &SQL{db: db}, nil
}

// Close closes the database.
func (s *SQL) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database.
func (s *SQL) DB() *sql.DB {
	return s.db
}

// Execute implements dialect.Executor.
func (s *SQL) Execute(ctx context.Context, stmt *dialect.Statement) (*results.Results, error) {
	if stmt.Kind != dialect.KindSQL {
		return nil, fmt.Errorf("sql executor cannot run %s statements", stmt.Kind)
	}

	rows, err := s.db.QueryContext(ctx, stmt.Text, stmt.Values...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", stmt.Collection, err)
	}
	columns, out, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", stmt.Collection, err)
	}

	found := len(out) + stmt.Offset
	if stmt.CountText != "" {
		if err := s.db.QueryRowContext(ctx, stmt.CountText, stmt.CountValues...).Scan(&found); err != nil {
			return nil, fmt.Errorf("count %s: %w", stmt.Collection, err)
		}
	}

	next, err := stmt.NextCursor(out)
	if err != nil {
		return nil, err
	}

	slog.Debug("statement executed",
		"dialect", stmt.Dialect,
		"collection", stmt.Collection,
		"rows", len(out),
		"found", found)

	return &results.Results{
		Columns: columns,
		Rows:    out,
		Found:   found,
		Page:    stmt.Page,
		Limit:   stmt.Limit,
		Offset:  stmt.Offset,
		Next:    next,
	}, nil
}

// applyPragmas sets the SQLite connection options.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA query_only = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}
