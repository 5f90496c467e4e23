package core

import (
	"fmt"
	"strings"
)

// keyColumnNames are header names (after normalizeHeader) that hold a
// record's identity on their own.
var keyColumnNames = map[string]bool{
	"name":      true,
	"username":  true,
	"email":     true,
	"full name": true,
	"user":      true,
}

// KeyColumns identifies the column, or first/last name column pair, that
// holds a record's identity.
type KeyColumns struct {
	Index int  // Key column when Split is false
	Split bool // True when identity is split across First and Last
	First int  // First-name column when Split is true
	Last  int  // Last-name column when Split is true
}

// SingleColumn returns a KeyColumns for one column index.
func SingleColumn(i int) KeyColumns {
	return KeyColumns{Index: i}
}

// NamePair returns a KeyColumns for split first/last name columns.
func NamePair(first, last int) KeyColumns {
	return KeyColumns{Split: true, First: first, Last: last}
}

// Columns returns the key column indices in priority order.
func (k KeyColumns) Columns() []int {
	if k.Split {
		return []int{k.First, k.Last}
	}
	return []int{k.Index}
}

// Contains reports whether column i is one of the key columns.
func (k KeyColumns) Contains(i int) bool {
	if k.Split {
		return i == k.First || i == k.Last
	}
	return i == k.Index
}

func (k KeyColumns) String() string {
	if k.Split {
		return fmt.Sprintf("first=%d,last=%d", k.First, k.Last)
	}
	return fmt.Sprintf("%d", k.Index)
}

// ResolveKeyColumns decides which column(s) hold the identity for a header.
//
// The first header whose name is one of name, username, email, full name or
// user wins. Failing that, a pair of columns whose names contain "first" and
// "name" and "last" and "name" is used. Otherwise column 0. A nil header
// resolves to column 0.
func ResolveKeyColumns(header []string) KeyColumns {
	first, last := -1, -1

	for i, h := range header {
		name := normalizeHeader(h)
		if keyColumnNames[name] {
			return SingleColumn(i)
		}
		if first < 0 && strings.Contains(name, "first") && strings.Contains(name, "name") {
			first = i
		}
		if last < 0 && strings.Contains(name, "last") && strings.Contains(name, "name") {
			last = i
		}
	}

	if first >= 0 && last >= 0 {
		return NamePair(first, last)
	}
	return SingleColumn(0)
}

// normalizeHeader lowercases a header name and folds '_' and '-' into
// single spaces so "Full_Name" and "full name" compare equal.
func normalizeHeader(h string) string {
	h = strings.ToLower(CleanCell(h))
	h = strings.NewReplacer("_", " ", "-", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}
