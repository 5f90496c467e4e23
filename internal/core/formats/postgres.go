package formats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/dumpmerge/internal/core"
)

func init() {
	core.RegisterFormat(core.FormatDefinition{
		Key:     "postgres",
		Label:   "PostgreSQL table",
		Schemes: []string{"postgres", "postgresql"},
		Open:    openPostgres,
	})
}

// postgresSource streams one table over a dedicated pool.
type postgresSource struct {
	pool   *pgxpool.Pool
	rows   pgx.Rows
	header []string
	n      int
}

func openPostgres(ctx context.Context, url string, opts core.Options) (core.Source, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	var table pgx.Identifier
	if opts.Table != "" {
		table = pgx.Identifier(strings.Split(opts.Table, "."))
	} else {
		table, err = firstPostgresTable(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
	}

	rows, err := pool.Query(ctx, "SELECT * FROM "+table.Sanitize())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("read source table %s: %w", table.Sanitize(), err)
	}

	fields := rows.FieldDescriptions()
	header := make([]string, len(fields))
	for i, fd := range fields {
		header[i] = fd.Name
	}

	return &postgresSource{pool: pool, rows: rows, header: header}, nil
}

// firstPostgresTable returns the first base table outside the system
// schemas, ordered by schema then name.
func firstPostgresTable(ctx context.Context, pool *pgxpool.Pool) (pgx.Identifier, error) {
	var schema, name string
	err := pool.QueryRow(ctx,
		`SELECT table_schema, table_name
		 FROM information_schema.tables
		 WHERE table_type = 'BASE TABLE'
		   AND table_schema NOT IN ('pg_catalog', 'information_schema')
		 ORDER BY table_schema, table_name
		 LIMIT 1`,
	).Scan(&schema, &name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoTables
	}
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return pgx.Identifier{schema, name}, nil
}

func (s *postgresSource) Header() []string {
	return s.header
}

func (s *postgresSource) Next() (core.Record, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return core.Record{}, fmt.Errorf("read source row %d: %w", s.n+1, err)
		}
		return core.Record{}, io.EOF
	}
	s.n++

	values, err := s.rows.Values()
	if err != nil {
		return core.Record{}, fmt.Errorf("read source row %d: %w", s.n, err)
	}
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = cellString(v)
	}
	return core.Record{Line: s.n, Cells: cells}, nil
}

func (s *postgresSource) Close() error {
	s.rows.Close()
	s.pool.Close()
	return nil
}
