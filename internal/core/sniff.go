package core

// sniff.go infers the field delimiter of delimited text from a small sample.
//
// For every candidate separator the number of occurrences outside double
// quotes is counted per line. A separator that appears the same number of
// times on (nearly) every line is taken as the delimiter. Ties go to the
// earlier entry in delimiterCandidates.

import (
	"bytes"
	"errors"
)

// DefaultSampleSize is the number of bytes inspected when sniffing.
const DefaultSampleSize = 1024

// DefaultDelimiter is used when sniffing cannot decide.
const DefaultDelimiter = ','

// ErrNoDelimiter is returned when no candidate separator is used consistently.
var ErrNoDelimiter = errors.New("could not determine delimiter")

// delimiterCandidates lists the separators considered, in preference order.
var delimiterCandidates = []rune{',', '\t', ';', '|', ':'}

// consistencyThreshold is the minimum share of lines that must agree on a
// separator's per-line count.
const consistencyThreshold = 0.9

// SniffDelimiter returns the delimiter used in sample, or ErrNoDelimiter.
func SniffDelimiter(sample []byte) (rune, error) {
	lines := sampleLines(sample)
	if len(lines) == 0 {
		return 0, ErrNoDelimiter
	}

	best := rune(0)
	bestShare := 0.0
	for _, c := range delimiterCandidates {
		mode, share := modalCount(lines, c)
		if mode == 0 || share < consistencyThreshold {
			continue
		}
		if share > bestShare {
			best, bestShare = c, share
		}
	}

	if best == 0 {
		return 0, ErrNoDelimiter
	}
	return best, nil
}

// DetectDelimiter sniffs sample and falls back to DefaultDelimiter,
// reporting the fallback. It never fails.
func DetectDelimiter(sample []byte, rep Reporter) rune {
	d, err := SniffDelimiter(sample)
	if err != nil {
		reporterOrDiscard(rep).DelimiterFallback(DefaultDelimiter, err)
		return DefaultDelimiter
	}
	return d
}

// sampleLines splits sample into non-blank lines. A final line without a
// terminating newline is dropped when other lines exist, since the sample
// was most likely cut in the middle of it.
func sampleLines(sample []byte) [][]byte {
	sample = bytes.ReplaceAll(sample, []byte("\r\n"), []byte("\n"))
	parts := bytes.Split(sample, []byte("\n"))

	truncated := len(parts) > 1 && len(parts[len(parts)-1]) > 0
	if truncated {
		parts = parts[:len(parts)-1]
	}

	lines := make([][]byte, 0, len(parts))
	for _, p := range parts {
		if len(bytes.TrimSpace(p)) == 0 {
			continue
		}
		lines = append(lines, p)
	}
	return lines
}

// modalCount returns the most common per-line count of c (ignoring quoted
// text) and the share of lines having that count.
func modalCount(lines [][]byte, c rune) (int, float64) {
	freq := make(map[int]int)
	for _, line := range lines {
		freq[countUnquoted(line, c)]++
	}

	mode, modeLines := 0, 0
	for count, n := range freq {
		if n > modeLines || (n == modeLines && count > mode) {
			mode, modeLines = count, n
		}
	}
	return mode, float64(modeLines) / float64(len(lines))
}

func countUnquoted(line []byte, c rune) int {
	n := 0
	inQuotes := false
	for _, r := range string(line) {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == c && !inQuotes:
			n++
		}
	}
	return n
}
