package formats

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/dumpmerge/internal/core"
)

func init() {
	core.RegisterFormat(core.FormatDefinition{
		Key:        "csv",
		Label:      "Delimited text with header",
		Extensions: []string{".csv", ".tsv"},
		Open:       openDelimited,
	})
}

// delimitedSource reads a quoted, delimited file whose first record is the
// header.
type delimitedSource struct {
	input    *textInput
	reader   *csv.Reader
	header   []string
	reporter core.Reporter
}

func openDelimited(_ context.Context, path string, opts core.Options) (core.Source, error) {
	input, err := openTextInput(path, opts)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(input.reader)
	r.Comma = input.delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	src := &delimitedSource{input: input, reader: r, reporter: opts.Reporter}

	header, err := r.Read()
	switch {
	case errors.Is(err, io.EOF):
		// Empty file: no header, no rows.
	case err != nil:
		input.Close()
		return nil, fmt.Errorf("read source %s header: %w", path, err)
	default:
		src.header = header
	}
	return src, nil
}

func (s *delimitedSource) Header() []string {
	return s.header
}

// Next returns the next record. Records the CSV parser rejects are reported
// as malformed and skipped.
func (s *delimitedSource) Next() (core.Record, error) {
	for {
		row, err := s.reader.Read()
		if err == nil {
			line, _ := s.reader.FieldPos(0)
			return core.Record{Line: line, Cells: row}, nil
		}

		var perr *csv.ParseError
		if errors.As(err, &perr) {
			if s.reporter != nil {
				s.reporter.RowSkipped(perr.StartLine, core.ReasonMalformed)
			}
			continue
		}
		return core.Record{}, err
	}
}

func (s *delimitedSource) Close() error {
	return s.input.Close()
}
