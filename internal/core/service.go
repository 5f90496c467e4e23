package core

import (
	"context"
	"sync"
	"time"
)

// DefaultHistorySize is the number of finished runs kept for /api/runs.
const DefaultHistorySize = 50

// ServiceConfig holds the run settings shared by every caller.
type ServiceConfig struct {
	SampleSize  int
	Encoding    string // Default source encoding; RunRequest.Encoding overrides
	NameRule    NameRule
	Shards      int
	MaxConns    int
	HistorySize int
}

// RunRequest describes one input to normalize.
type RunRequest struct {
	Location string // File path or database URL
	Label    string // Name reported in results; Location when empty
	Table    string
	Sheet    string
	Encoding string
	Reporter Reporter
}

// RunSummary is the record of a finished run.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	Source     string        `json:"source"`
	Format     string        `json:"format"`
	KeyColumns string        `json:"key_columns"`
	Entries    int           `json:"entries"`
	Rows       int           `json:"rows"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"duration_ns"`
	Location   string        `json:"location,omitempty"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Service opens sources, runs the normalizer and remembers recent runs.
// It is safe for concurrent use.
type Service struct {
	cfg     ServiceConfig
	limiter *RunLimiter

	mu      sync.RWMutex
	history []RunSummary // newest last
}

// NewService creates a Service. A nil limiter leaves runs unbounded.
func NewService(cfg ServiceConfig, limiter *RunLimiter) *Service {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}
	if cfg.NameRule == nil {
		cfg.NameRule = ExcludeDigits
	}
	return &Service{cfg: cfg, limiter: limiter}
}

// Limiter returns the run limiter, or nil.
func (s *Service) Limiter() *RunLimiter {
	return s.limiter
}

// ListFormats returns the registered input formats.
func (s *Service) ListFormats() []FormatDefinition {
	return Formats()
}

// Run normalizes one input. It waits for a limiter slot first, so callers
// may see ErrTooManyRuns.
func (s *Service) Run(ctx context.Context, req RunRequest) (*Result, error) {
	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		defer s.limiter.Release()
	}

	encoding := req.Encoding
	if encoding == "" {
		encoding = s.cfg.Encoding
	}
	rep := reporterOrDiscard(req.Reporter)

	src, def, err := OpenSource(ctx, req.Location, Options{
		Table:      req.Table,
		Sheet:      req.Sheet,
		Encoding:   encoding,
		SampleSize: s.cfg.SampleSize,
		MaxConns:   s.cfg.MaxConns,
		Reporter:   rep,
	})
	if err != nil {
		return nil, err
	}
	defer src.Close()

	label := req.Label
	if label == "" {
		label = req.Location
	}

	result, err := NormalizeSharded(ctx, src, s.cfg.Shards,
		WithRunNameRule(s.cfg.NameRule),
		WithRunReporter(rep),
		WithRunSource(label, def.Key),
	)
	if err != nil {
		return nil, err
	}

	s.record(result)
	return result, nil
}

func (s *Service) record(r *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, RunSummary{
		RunID:      r.RunID,
		Source:     r.Source,
		Format:     r.Format,
		KeyColumns: r.KeyColumns.String(),
		Entries:    r.Mapping.Len(),
		Rows:       r.Rows,
		Skipped:    r.Skipped,
		Duration:   r.Duration,
		FinishedAt: time.Now().UTC(),
	})
	if over := len(s.history) - s.cfg.HistorySize; over > 0 {
		s.history = append([]RunSummary(nil), s.history[over:]...)
	}
}

// SetLocation attaches the stored output location to a recorded run.
func (s *Service) SetLocation(runID, location string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.history {
		if s.history[i].RunID == runID {
			s.history[i].Location = location
			return
		}
	}
}

// RecentRuns returns up to limit finished runs, newest first. limit <= 0
// returns all retained runs.
func (s *Service) RecentRuns(limit int) []RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.history)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]RunSummary, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.history[i])
	}
	return out
}

// GetRun returns the summary of a retained run.
func (s *Service) GetRun(runID string) (RunSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.history {
		if r.RunID == runID {
			return r, true
		}
	}
	return RunSummary{}, false
}
