package core

import (
	"context"
	"io"
	"sync"
)

// sliceSource serves fixed rows.
type sliceSource struct {
	header []string
	rows   [][]string
	pos    int
	err    error // returned after the rows instead of io.EOF
	closed bool
}

func (s *sliceSource) Header() []string { return s.header }

func (s *sliceSource) Next() (Record, error) {
	if s.pos >= len(s.rows) {
		if s.err != nil {
			return Record{}, s.err
		}
		return Record{}, io.EOF
	}
	s.pos++
	line := s.pos
	if s.header != nil {
		line++
	}
	return Record{Line: line, Cells: s.rows[s.pos-1]}, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

type skipEvent struct {
	line   int
	reason SkipReason
}

// recordingReporter keeps every diagnostic it receives.
type recordingReporter struct {
	mu        sync.Mutex
	skips     []skipEvent
	fallbacks []rune
	finished  []int
}

func (r *recordingReporter) RowSkipped(line int, reason SkipReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skips = append(r.skips, skipEvent{line, reason})
}

func (r *recordingReporter) DelimiterFallback(fallback rune, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, fallback)
}

func (r *recordingReporter) Finished(entries int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, entries)
}

// memSources backs the ".memtest" format registered for service tests.
var (
	memSourcesMu sync.Mutex
	memSources   = map[string]*sliceSource{}
	memOnce      sync.Once
)

func registerMemFormat() {
	memOnce.Do(func() {
		RegisterFormat(FormatDefinition{
			Key:        "memtest",
			Label:      "In-memory test rows",
			Extensions: []string{".memtest"},
			Open: func(_ context.Context, location string, _ Options) (Source, error) {
				memSourcesMu.Lock()
				defer memSourcesMu.Unlock()
				src, ok := memSources[location]
				if !ok {
					return nil, io.ErrUnexpectedEOF
				}
				return src, nil
			},
		})
	})
}

func addMemSource(location string, src *sliceSource) {
	memSourcesMu.Lock()
	defer memSourcesMu.Unlock()
	memSources[location] = src
}

func mappingJSON(m *Mapping) string {
	b, err := m.MarshalJSON()
	if err != nil {
		panic(err)
	}
	return string(b)
}
