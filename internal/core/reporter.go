package core

import "log/slog"

// SkipReason explains why a row did not contribute to the mapping.
type SkipReason string

const (
	ReasonEmptyRow  SkipReason = "empty row"
	ReasonNoKey     SkipReason = "invalid identifier"
	ReasonMalformed SkipReason = "malformed row"
)

// Reporter receives diagnostics emitted while normalizing a source.
// None of these are part of the output data.
type Reporter interface {
	// RowSkipped is called for every row that yields no identity key.
	RowSkipped(line int, reason SkipReason)

	// DelimiterFallback is called when sniffing fails and the default
	// delimiter is used instead.
	DelimiterFallback(fallback rune, err error)

	// Finished is called once per source with the number of keys in the mapping.
	Finished(entries int)
}

// LogReporter writes diagnostics to a structured logger.
type LogReporter struct {
	Logger *slog.Logger
}

// NewLogReporter returns a reporter that logs to logger, or to the default
// logger when logger is nil.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{Logger: logger}
}

func (r *LogReporter) RowSkipped(line int, reason SkipReason) {
	r.Logger.Warn("row skipped", "line", line, "reason", string(reason))
}

func (r *LogReporter) DelimiterFallback(fallback rune, err error) {
	r.Logger.Info("could not detect delimiter, using default",
		"delimiter", string(fallback),
		"error", err,
	)
}

func (r *LogReporter) Finished(entries int) {
	r.Logger.Info("finished processing", "entries", entries)
}

// DiscardReporter drops all diagnostics.
type DiscardReporter struct{}

func (DiscardReporter) RowSkipped(int, SkipReason)    {}
func (DiscardReporter) DelimiterFallback(rune, error) {}
func (DiscardReporter) Finished(int)                  {}

func reporterOrDiscard(r Reporter) Reporter {
	if r == nil {
		return DiscardReporter{}
	}
	return r
}
