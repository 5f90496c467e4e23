// Package artifact persists normalized mappings as JSON documents.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/dumpmerge/internal/core"
)

// DefaultSuffix replaces the input extension when naming an output file.
const DefaultSuffix = "out.json"

// ErrNotFound is returned by stores that can read back a missing document.
var ErrNotFound = errors.New("artifact not found")

// Store persists one output document under name and returns where it was
// written (a file path or an object URL).
type Store interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// Encode renders m as a JSON object indented by two spaces, keys in
// first-insertion order.
func Encode(m *core.Mapping) ([]byte, error) {
	if m == nil {
		m = core.NewMapping()
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// OutputName derives the output name for input by replacing its extension
// with suffix: "dump/users.csv" becomes "dump/usersout.json".
func OutputName(input, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("name is required")
	}
	return name, nil
}
