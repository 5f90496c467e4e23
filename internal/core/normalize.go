package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ContextCheckInterval is how often (in rows) to check for context cancellation.
var ContextCheckInterval = 100

type runConfig struct {
	nameRule NameRule
	reporter Reporter
	label    string
	format   string
}

// RunOption configures a normalization run.
type RunOption func(*runConfig)

// WithRunNameRule sets the name rule used for name-like keys.
func WithRunNameRule(rule NameRule) RunOption {
	return func(c *runConfig) { c.nameRule = rule }
}

// WithRunReporter sets the diagnostics sink for the run.
func WithRunReporter(r Reporter) RunOption {
	return func(c *runConfig) { c.reporter = r }
}

// WithRunSource labels the result with the source location and format key.
func WithRunSource(label, format string) RunOption {
	return func(c *runConfig) {
		c.label = label
		c.format = format
	}
}

func newRunConfig(opts []RunOption) runConfig {
	cfg := runConfig{nameRule: ExcludeDigits, reporter: DiscardReporter{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.reporter = reporterOrDiscard(cfg.reporter)
	if cfg.nameRule == nil {
		cfg.nameRule = ExcludeDigits
	}
	return cfg
}

// Normalize reads every row of src and aggregates it into a Mapping.
//
// The key columns are resolved once from the header. Rows without a usable
// key are skipped and reported. An error reading the source aborts the run
// and no mapping is returned.
func Normalize(ctx context.Context, src Source, opts ...RunOption) (*Result, error) {
	cfg := newRunConfig(opts)
	start := time.Now()

	cols := ResolveKeyColumns(src.Header())
	agg := NewAggregator(WithNameRule(cfg.nameRule), WithReporter(cfg.reporter))

	for i := 0; ; i++ {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("run cancelled after %d rows: %w", i, err)
			}
		}

		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
		agg.AddRow(rec, cols)
	}

	stats := agg.Stats()
	return &Result{
		RunID:      uuid.NewString(),
		Source:     cfg.label,
		Format:     cfg.format,
		KeyColumns: cols,
		Mapping:    agg.Finish(),
		Rows:       stats.Rows,
		Skipped:    stats.Skipped,
		Duration:   time.Since(start),
	}, nil
}

// NormalizeSharded is Normalize with aggregation spread over shards
// goroutines. Rows are read sequentially, split into contiguous shards,
// aggregated independently and merged in shard order, so the result is
// identical to a sequential run. The whole source is held in memory.
func NormalizeSharded(ctx context.Context, src Source, shards int, opts ...RunOption) (*Result, error) {
	if shards <= 1 {
		return Normalize(ctx, src, opts...)
	}

	cfg := newRunConfig(opts)
	start := time.Now()
	cols := ResolveKeyColumns(src.Header())

	var records []Record
	for i := 0; ; i++ {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("run cancelled after %d rows: %w", i, err)
			}
		}
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
		records = append(records, rec)
	}

	size := (len(records) + shards - 1) / shards
	if size == 0 {
		size = 1
	}

	rep := &syncReporter{inner: cfg.reporter}
	var parts []*Aggregator
	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(records); lo += size {
		hi := min(lo+size, len(records))
		agg := NewAggregator(WithNameRule(cfg.nameRule), WithReporter(rep))
		parts = append(parts, agg)

		chunk := records[lo:hi]
		g.Go(func() error {
			for i, rec := range chunk {
				if i%ContextCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				agg.AddRow(rec, cols)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	mapping := NewMapping()
	var rows, skipped int
	for _, agg := range parts {
		mapping.Merge(agg.Mapping())
		rows += agg.Stats().Rows
		skipped += agg.Stats().Skipped
	}
	cfg.reporter.Finished(mapping.Len())

	return &Result{
		RunID:      uuid.NewString(),
		Source:     cfg.label,
		Format:     cfg.format,
		KeyColumns: cols,
		Mapping:    mapping,
		Rows:       rows,
		Skipped:    skipped,
		Duration:   time.Since(start),
	}, nil
}

// syncReporter serializes row diagnostics from shard workers and swallows
// their per-shard Finished calls; the run reports the merged count instead.
type syncReporter struct {
	mu    sync.Mutex
	inner Reporter
}

func (r *syncReporter) RowSkipped(line int, reason SkipReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inner.RowSkipped(line, reason)
}

func (r *syncReporter) DelimiterFallback(fallback rune, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inner.DelimiterFallback(fallback, err)
}

func (r *syncReporter) Finished(int) {}
