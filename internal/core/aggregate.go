package core

import "strings"

// Stats counts the rows an Aggregator has seen.
type Stats struct {
	Rows    int // Rows passed to AddRow
	Added   int // Rows merged into the mapping
	Skipped int // Rows without a usable key
}

// Aggregator merges rows into a Mapping keyed by identity.
type Aggregator struct {
	extractor Extractor
	reporter  Reporter
	mapping   *Mapping
	stats     Stats
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithNameRule overrides the rule used when building name-like keys.
func WithNameRule(rule NameRule) AggregatorOption {
	return func(a *Aggregator) {
		if rule != nil {
			a.extractor.NameRule = rule
		}
	}
}

// WithReporter sets the diagnostics sink.
func WithReporter(r Reporter) AggregatorOption {
	return func(a *Aggregator) {
		a.reporter = reporterOrDiscard(r)
	}
}

// NewAggregator returns an Aggregator with an empty mapping.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		extractor: Extractor{NameRule: ExcludeDigits},
		reporter:  DiscardReporter{},
		mapping:   NewMapping(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AddRow derives the key of rec and merges its values. It returns false
// when the row was skipped; skipped rows are reported, never fatal.
//
// A row whose only content is its key is still recorded, with no values.
func (a *Aggregator) AddRow(rec Record, cols KeyColumns) bool {
	a.stats.Rows++

	if isEmptyRow(rec.Cells) {
		a.skip(rec.Line, ReasonEmptyRow)
		return false
	}

	key, ok := a.extractor.Extract(rec.Cells, cols)
	if !ok {
		a.skip(rec.Line, ReasonNoKey)
		return false
	}

	a.mapping.Add(key.Value, rowValues(rec.Cells, cols, key)...)
	a.stats.Added++
	return true
}

func (a *Aggregator) skip(line int, reason SkipReason) {
	a.stats.Skipped++
	a.reporter.RowSkipped(line, reason)
}

// Finish reports the entry count and returns the mapping.
func (a *Aggregator) Finish() *Mapping {
	a.reporter.Finished(a.mapping.Len())
	return a.mapping
}

// Mapping returns the mapping built so far.
func (a *Aggregator) Mapping() *Mapping {
	return a.mapping
}

// Stats returns the row counters.
func (a *Aggregator) Stats() Stats {
	return a.stats
}

// rowValues lists the candidate values of a row: key column cells that did
// not end up in the key come first, then every other cell outside the key
// columns. Empty values and values equal to the key are dropped.
func rowValues(row []string, cols KeyColumns, key Key) []string {
	values := make([]string, 0, len(row))
	add := func(i int) {
		v := strings.TrimSpace(row[i])
		if v == "" || v == key.Value {
			return
		}
		values = append(values, v)
	}

	for _, i := range cols.Columns() {
		if i >= 0 && i < len(row) && !key.consumed(i) {
			add(i)
		}
	}
	for i := range row {
		if cols.Contains(i) || key.consumed(i) {
			continue
		}
		add(i)
	}
	return values
}
