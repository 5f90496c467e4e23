package formats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JonMunkholm/dumpmerge/internal/core"

	_ "modernc.org/sqlite"
)

func init() {
	core.RegisterFormat(core.FormatDefinition{
		Key:        "sqlite",
		Label:      "SQLite database",
		Extensions: []string{".db", ".sqlite", ".sqlite3"},
		Open:       openSQLite,
	})
}

// sqliteSource streams one table of a SQLite database file.
type sqliteSource struct {
	db    *sql.DB
	table string
	rows  *sqlRows
}

func openSQLite(ctx context.Context, path string, opts core.Options) (core.Source, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	table := opts.Table
	if table == "" {
		table, err = firstSQLiteTable(ctx, db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("open sqlite %s: %w", path, err)
		}
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdentifier(table))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read source %s table %s: %w", path, table, err)
	}

	sr, err := newSQLRows(rows)
	if err != nil {
		rows.Close()
		db.Close()
		return nil, err
	}

	return &sqliteSource{db: db, table: table, rows: sr}, nil
}

// firstSQLiteTable returns the first user table in creation order.
func firstSQLiteTable(ctx context.Context, db *sql.DB) (string, error) {
	var name string
	err := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		 ORDER BY rowid LIMIT 1`,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoTables
	}
	if err != nil {
		return "", fmt.Errorf("list tables: %w", err)
	}
	return name, nil
}

func (s *sqliteSource) Header() []string {
	return s.rows.columns
}

func (s *sqliteSource) Next() (core.Record, error) {
	n, cells, err := s.rows.next()
	if err != nil {
		return core.Record{}, err
	}
	return core.Record{Line: n, Cells: cells}, nil
}

func (s *sqliteSource) Close() error {
	rerr := s.rows.rows.Close()
	if err := s.db.Close(); err != nil {
		return err
	}
	return rerr
}
