package core

import (
	"fmt"
	"strings"
	"unicode"
)

// NameRule decides whether a trimmed, non-empty cell may be part of a
// name-like identity key.
type NameRule func(value string) bool

// ExcludeDigits rejects values containing any decimal digit, biasing name
// keys towards human names rather than numeric IDs or passwords.
func ExcludeDigits(value string) bool {
	return !strings.ContainsFunc(value, unicode.IsDigit)
}

// AnyText accepts every value.
func AnyText(string) bool {
	return true
}

// NameRuleByName returns a registered name rule.
// Known names are "no-digits" (the default) and "any".
func NameRuleByName(name string) (NameRule, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "no-digits":
		return ExcludeDigits, nil
	case "any":
		return AnyText, nil
	default:
		return nil, fmt.Errorf("unknown name rule %q", name)
	}
}

// Key is an identity key together with the cells it was built from.
type Key struct {
	Value string
	Cells []int
}

// consumed reports whether column i contributed to the key.
func (k Key) consumed(i int) bool {
	for _, c := range k.Cells {
		if c == i {
			return true
		}
	}
	return false
}

// Extractor derives identity keys from rows.
type Extractor struct {
	NameRule NameRule // Defaults to ExcludeDigits
}

// Extract computes the identity key of row.
//
// A cell containing "@" is taken as an email and used as the key whatever
// the key columns say. Otherwise the first two cells starting at the key
// column (or the first and last name cells of a split pair) that pass the
// name rule are joined with a space. ok is false when no key can be built.
func (e *Extractor) Extract(row []string, cols KeyColumns) (key Key, ok bool) {
	for i, cell := range row {
		if strings.Contains(cell, "@") {
			if v := strings.TrimSpace(cell); v != "" {
				return Key{Value: v, Cells: []int{i}}, true
			}
		}
	}

	rule := e.NameRule
	if rule == nil {
		rule = ExcludeDigits
	}

	var parts []string
	var cells []int
	for _, i := range nameCandidates(len(row), cols) {
		v := strings.TrimSpace(row[i])
		if v == "" || !rule(v) {
			continue
		}
		parts = append(parts, v)
		cells = append(cells, i)
		if len(parts) == 2 {
			break
		}
	}

	if len(parts) == 0 {
		return Key{}, false
	}
	return Key{Value: strings.Join(parts, " "), Cells: cells}, true
}

// nameCandidates lists the in-range column indices that may form a name key.
func nameCandidates(n int, cols KeyColumns) []int {
	if cols.Split {
		var out []int
		for _, i := range []int{cols.First, cols.Last} {
			if i >= 0 && i < n {
				out = append(out, i)
			}
		}
		return out
	}

	start := cols.Index
	if start < 0 {
		start = 0
	}
	var out []int
	for i := start; i < n; i++ {
		out = append(out, i)
	}
	return out
}
