package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/dumpmerge/internal/core"
)

// textInput is an opened delimited text file with its sniffed delimiter.
type textInput struct {
	file      *os.File
	reader    *bufio.Reader
	delimiter rune
}

// openTextInput opens path, decodes and sanitizes it, and sniffs the
// delimiter from the first opts.SampleSize bytes without consuming them.
func openTextInput(path string, opts core.Options) (*textInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	wrapped, err := core.WrapText(f, opts.Encoding)
	if err != nil {
		f.Close()
		return nil, err
	}

	sampleSize := opts.SampleSize
	if sampleSize <= 0 {
		sampleSize = core.DefaultSampleSize
	}
	br := bufio.NewReaderSize(wrapped, max(sampleSize, 64*1024))

	sample, err := br.Peek(sampleSize)
	if err != nil && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, fmt.Errorf("read source %s: %w", path, err)
	}

	return &textInput{
		file:      f,
		reader:    br,
		delimiter: core.DetectDelimiter(sample, opts.Reporter),
	}, nil
}

func (t *textInput) Close() error {
	return t.file.Close()
}
