package formats

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/dumpmerge/internal/core"
)

// ErrNoSheets is returned when a workbook has no worksheets.
var ErrNoSheets = fmt.Errorf("no sheets found")

func init() {
	core.RegisterFormat(core.FormatDefinition{
		Key:        "xlsx",
		Label:      "Excel workbook",
		Extensions: []string{".xlsx", ".xlsm"},
		Open:       openWorkbook,
	})
}

// workbookSource streams one worksheet. The first non-empty row is the
// header.
type workbookSource struct {
	file   *excelize.File
	rows   *excelize.Rows
	sheet  string
	header []string
	line   int
}

func openWorkbook(_ context.Context, path string, opts core.Options) (core.Source, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			f.Close()
			return nil, fmt.Errorf("open workbook %s: %w", path, ErrNoSheets)
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read source %s sheet %s: %w", path, sheet, err)
	}

	src := &workbookSource{file: f, rows: rows, sheet: sheet}
	for {
		cells, err := src.read()
		if err == io.EOF {
			break
		}
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("read source %s header: %w", path, err)
		}
		if len(cells) > 0 {
			src.header = cells
			break
		}
	}
	return src, nil
}

func (s *workbookSource) read() ([]string, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	s.line++
	return s.rows.Columns()
}

func (s *workbookSource) Header() []string {
	return s.header
}

func (s *workbookSource) Next() (core.Record, error) {
	cells, err := s.read()
	if err != nil {
		if err == io.EOF {
			return core.Record{}, io.EOF
		}
		return core.Record{}, fmt.Errorf("sheet %s row %d: %w", s.sheet, s.line, err)
	}
	return core.Record{Line: s.line, Cells: cells}, nil
}

func (s *workbookSource) Close() error {
	rerr := s.rows.Close()
	if err := s.file.Close(); err != nil {
		return err
	}
	return rerr
}
