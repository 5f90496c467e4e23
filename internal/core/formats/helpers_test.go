package formats

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/JonMunkholm/dumpmerge/internal/core"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func readAll(t *testing.T, src core.Source) []core.Record {
	t.Helper()
	var out []core.Record
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		out = append(out, rec)
	}
}

type captureReporter struct {
	mu        sync.Mutex
	skipped   []int
	fallbacks []rune
}

func (r *captureReporter) RowSkipped(line int, _ core.SkipReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped = append(r.skipped, line)
}

func (r *captureReporter) DelimiterFallback(fallback rune, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, fallback)
}

func (r *captureReporter) Finished(int) {}
