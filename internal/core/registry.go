package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrUnsupportedFormat is returned when no registered format handles a location.
var ErrUnsupportedFormat = errors.New("unsupported file type")

var (
	registry   = make(map[string]FormatDefinition)
	registryMu sync.RWMutex
)

// RegisterFormat adds a format definition to the registry.
// Panics if a format with the same key is already registered, or if one of
// its extensions or schemes is already claimed.
func RegisterFormat(def FormatDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Key]; exists {
		panic(fmt.Sprintf("format already registered: %s", def.Key))
	}
	if def.Open == nil {
		panic(fmt.Sprintf("format %s has no Open func", def.Key))
	}

	for i, ext := range def.Extensions {
		def.Extensions[i] = strings.ToLower(ext)
	}
	for _, other := range registry {
		for _, ext := range def.Extensions {
			if hasString(other.Extensions, ext) {
				panic(fmt.Sprintf("extension %s already registered by %s", ext, other.Key))
			}
		}
		for _, scheme := range def.Schemes {
			if hasString(other.Schemes, scheme) {
				panic(fmt.Sprintf("scheme %s already registered by %s", scheme, other.Key))
			}
		}
	}

	registry[def.Key] = def
}

// GetFormat returns a format definition by key.
// Returns false if not found.
func GetFormat(key string) (FormatDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// FormatFor returns the format that handles location, matching URL schemes
// first ("postgres://...") and then the file extension.
func FormatFor(location string) (FormatDefinition, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if scheme, _, ok := strings.Cut(location, "://"); ok {
		scheme = strings.ToLower(scheme)
		for _, def := range registry {
			if hasString(def.Schemes, scheme) {
				return def, nil
			}
		}
		return FormatDefinition{}, fmt.Errorf("%w: scheme %q", ErrUnsupportedFormat, scheme)
	}

	ext := strings.ToLower(filepath.Ext(location))
	for _, def := range registry {
		if hasString(def.Extensions, ext) {
			return def, nil
		}
	}
	return FormatDefinition{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// Formats returns all registered format definitions.
// Sorted by key for consistent ordering.
func Formats() []FormatDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]FormatDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// FormatCount returns the number of registered formats.
func FormatCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// ClearFormats removes all registered formats.
// Primarily useful for testing.
func ClearFormats() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]FormatDefinition)
}

func hasString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
