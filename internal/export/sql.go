package export

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"plan-digitizer/internal/logging"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

var sqlOpen = sql.Open

var schema = []string{
	`CREATE TABLE IF NOT EXISTS points (
		id INTEGER PRIMARY KEY,
		x DOUBLE PRECISION NOT NULL,
		y DOUBLE PRECISION NOT NULL,
		z DOUBLE PRECISION NOT NULL,
		description TEXT NOT NULL,
		hidden BOOLEAN NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lines (
		id INTEGER PRIMARY KEY,
		start_id INTEGER NOT NULL,
		end_id INTEGER NOT NULL,
		start_z DOUBLE PRECISION NOT NULL,
		end_z DOUBLE PRECISION NOT NULL,
		description TEXT NOT NULL,
		hidden BOOLEAN NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS curve_positions (
		curve_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		point_id INTEGER NOT NULL,
		line_id INTEGER,
		PRIMARY KEY (curve_id, position)
	)`,
}

// SQLSink writes export tables to a SQLite or Postgres database.
type SQLSink struct {
	db     *sql.DB
	driver string
}

// OpenSQL opens and pings the database. driver is DriverSQLite (dsn is a file path) or
// DriverPostgres (dsn is a connection URL).
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLSink, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported export driver %q", driver)
	}
	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &SQLSink{db: db, driver: driver}, nil
}

// Close releases the connection pool.
func (s *SQLSink) Close() error { return s.db.Close() }

// DB exposes the underlying pool for inspection in tests.
func (s *SQLSink) DB() *sql.DB { return s.db }

// placeholders returns n bind markers for the sink's dialect.
func (s *SQLSink) placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		if s.driver == DriverPostgres {
			marks[i] = "$" + strconv.Itoa(i+1)
		} else {
			marks[i] = "?"
		}
	}
	return strings.Join(marks, ", ")
}

// Write replaces the contents of the three tables with t inside one transaction.
func (s *SQLSink) Write(ctx context.Context, t Tables) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin export: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range schema {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	for _, table := range []string{"curve_positions", "lines", "points"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	insert := func(table string, cols []string, rows int, args func(i int) []any) error {
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), s.placeholders(len(cols)))
		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			return fmt.Errorf("prepare %s insert: %w", table, err)
		}
		defer func() { _ = stmt.Close() }()
		for i := 0; i < rows; i++ {
			if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
				return fmt.Errorf("insert into %s: %w", table, err)
			}
		}
		return nil
	}

	if err = insert("points", []string{"id", "x", "y", "z", "description", "hidden"}, len(t.Points), func(i int) []any {
		r := t.Points[i]
		return []any{r.ID, r.X, r.Y, r.Z, r.Description, r.Hidden}
	}); err != nil {
		return err
	}
	if err = insert("lines", []string{"id", "start_id", "end_id", "start_z", "end_z", "description", "hidden"}, len(t.Lines), func(i int) []any {
		r := t.Lines[i]
		return []any{r.ID, r.StartID, r.EndID, r.StartZ, r.EndZ, r.Description, r.Hidden}
	}); err != nil {
		return err
	}
	if err = insert("curve_positions", []string{"curve_id", "position", "point_id", "line_id"}, len(t.CurvePositions), func(i int) []any {
		r := t.CurvePositions[i]
		line := sql.NullInt64{Int64: int64(r.LineID), Valid: r.LineID != 0}
		return []any{r.CurveID, r.Position, r.PointID, line}
	}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}
	logging.Logger().Info("export written", "driver", s.driver, "points", len(t.Points),
		"lines", len(t.Lines), "curve_positions", len(t.CurvePositions))
	return nil
}
