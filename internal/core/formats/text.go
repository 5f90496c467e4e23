package formats

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/dumpmerge/internal/core"
)

// maxLineSize bounds a single line of a plain text dump.
const maxLineSize = 1024 * 1024

func init() {
	core.RegisterFormat(core.FormatDefinition{
		Key:        "txt",
		Label:      "Plain text lines (no header)",
		Extensions: []string{".txt", ".lst"},
		Open:       openText,
	})
}

// textSource splits each line of a headerless dump on the sniffed
// delimiter. Quotes carry no meaning; combo lists routinely contain them
// inside passwords.
type textSource struct {
	input     *textInput
	scanner   *bufio.Scanner
	delimiter string
	line      int
}

func openText(_ context.Context, path string, opts core.Options) (core.Source, error) {
	input, err := openTextInput(path, opts)
	if err != nil {
		return nil, err
	}

	sc := bufio.NewScanner(input.reader)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &textSource{
		input:     input,
		scanner:   sc,
		delimiter: string(input.delimiter),
	}, nil
}

func (s *textSource) Header() []string {
	return nil
}

func (s *textSource) Next() (core.Record, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return core.Record{}, fmt.Errorf("line %d: %w", s.line+1, err)
		}
		return core.Record{}, io.EOF
	}
	s.line++

	line := strings.TrimSpace(s.scanner.Text())
	return core.Record{Line: s.line, Cells: strings.Split(line, s.delimiter)}, nil
}

func (s *textSource) Close() error {
	return s.input.Close()
}
