package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/census-cli/internal/census"
	"github.com/sells-group/census-cli/internal/fetcher"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS exports (
	id         TEXT PRIMARY KEY,
	table_name TEXT NOT NULL,
	dataset    TEXT NOT NULL,
	year       INTEGER NOT NULL,
	geography  TEXT NOT NULL,
	url        TEXT NOT NULL,
	row_count  INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_exports_table ON exports(table_name);
`

// Migrate creates the export log.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// WriteTable drops and recreates table name with one TEXT column per result
// column, inserts every row and appends an entry to the export log, all in
// one transaction.
func (s *SQLiteStore) WriteTable(ctx context.Context, name string, t *census.Table, meta Export) (*Export, error) {
	if !tableName.MatchString(name) || name == "exports" {
		return nil, eris.Errorf("sqlite: invalid table name %q", name)
	}
	if len(t.Columns) == 0 {
		return nil, eris.Errorf("sqlite: table %s has no columns", name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	quoted := quoteIdent(name)
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quoteIdent(c) + " TEXT"
	}
	for _, stmt := range []string{
		"DROP TABLE IF EXISTS " + quoted,
		fmt.Sprintf("CREATE TABLE %s (%s)", quoted, strings.Join(cols, ", ")),
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, eris.Wrapf(err, "sqlite: prepare table %s", name)
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
	insert, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoted, placeholders))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: prepare insert into %s", name)
	}
	defer insert.Close() //nolint:errcheck

	args := make([]any, len(t.Columns))
	for r, row := range t.Rows {
		for i, v := range row {
			args[i] = v
		}
		if _, err := insert.ExecContext(ctx, args...); err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert row %d into %s", r, name)
		}
	}

	rec := meta
	rec.ID = uuid.New().String()
	rec.Table = name
	rec.URL = fetcher.RedactURL(meta.URL)
	rec.Rows = t.Len()
	rec.CreatedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO exports (id, table_name, dataset, year, geography, url, row_count, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Table, rec.Dataset, rec.Year, rec.Geography, rec.URL, rec.Rows, rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: record export")
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit")
	}

	zap.L().Info("sqlite: table written",
		zap.String("component", "store.sqlite"),
		zap.String("table", name),
		zap.Int("rows", rec.Rows),
	)
	return &rec, nil
}

// ListExports returns the most recent exports first. limit <= 0 returns all.
func (s *SQLiteStore) ListExports(ctx context.Context, limit int) ([]Export, error) {
	query := `SELECT id, table_name, dataset, year, geography, url, row_count, created_at FROM exports ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list exports")
	}
	defer rows.Close() //nolint:errcheck

	var out []Export
	for rows.Next() {
		var e Export
		if err := rows.Scan(&e.ID, &e.Table, &e.Dataset, &e.Year, &e.Geography, &e.URL, &e.Rows, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan export")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate exports")
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
