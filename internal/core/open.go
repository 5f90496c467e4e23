package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// MaxFileSize is the maximum allowed input file size (512MB).
var MaxFileSize int64 = 512 * 1024 * 1024

// ErrFileTooLarge is returned when an input file exceeds MaxFileSize.
var ErrFileTooLarge = errors.New("file too large")

// OpenSource dispatches location to its registered format and opens it.
// File inputs are checked against MaxFileSize before they are opened.
func OpenSource(ctx context.Context, location string, opts Options) (Source, FormatDefinition, error) {
	def, err := FormatFor(location)
	if err != nil {
		return nil, FormatDefinition{}, err
	}

	if !strings.Contains(location, "://") {
		info, err := os.Stat(location)
		if err != nil {
			return nil, def, fmt.Errorf("open %s: %w", location, err)
		}
		if info.IsDir() {
			return nil, def, fmt.Errorf("open %s: is a directory", location)
		}
		if MaxFileSize > 0 && info.Size() > MaxFileSize {
			return nil, def, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, location, info.Size(), MaxFileSize)
		}
	}

	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSampleSize
	}
	opts.Reporter = reporterOrDiscard(opts.Reporter)

	src, err := def.Open(ctx, location, opts)
	if err != nil {
		return nil, def, err
	}
	return src, def, nil
}
