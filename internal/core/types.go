package core

import (
	"context"
	"time"
)

// Record is one data row read from a source.
type Record struct {
	Line  int      // 1-indexed line or row number in the source, for diagnostics
	Cells []string // Cell values in column order; may be shorter than the header
}

// Source is a single-pass stream of rows with an optional header.
//
// Implementations are provided by format adapters. Next returns io.EOF once
// the source is exhausted; any other error is treated as fatal.
type Source interface {
	Header() []string
	Next() (Record, error)
	Close() error
}

// Options configures how a format adapter opens a source.
type Options struct {
	Table      string   // SQLite/PostgreSQL table; first user table when empty
	Sheet      string   // Spreadsheet sheet; first sheet when empty
	Encoding   string   // Source text encoding (e.g. "windows-1252"); UTF-8 when empty
	SampleSize int      // Bytes sampled for delimiter sniffing
	MaxConns   int      // Connection pool bound for database URLs; driver default when zero
	Reporter   Reporter // Receives sniffing diagnostics
}

// OpenFunc opens a source at location (a file path or a connection URL).
type OpenFunc func(ctx context.Context, location string, opts Options) (Source, error)

// FormatDefinition describes one registered input format.
type FormatDefinition struct {
	Key        string   // Unique identifier: "csv"
	Label      string   // Display name: "Delimited text"
	Extensions []string // Lowercase file extensions including the dot: ".csv"
	Schemes    []string // URL schemes handled instead of extensions: "postgres"
	Open       OpenFunc
}

// Result is the outcome of one normalization run.
type Result struct {
	RunID      string
	Source     string
	Format     string
	KeyColumns KeyColumns
	Mapping    *Mapping
	Rows       int // Data rows read
	Skipped    int // Rows skipped without a usable key
	Duration   time.Duration
}
