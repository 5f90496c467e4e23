package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore writes documents to the local filesystem. With an empty Dir,
// names are used as paths as given; otherwise they are resolved inside Dir.
type FileStore struct {
	Dir string
}

// NewFileStore returns a store rooted at dir ("" writes next to the input).
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// Put writes data atomically: a temp file in the target directory is
// renamed over the destination once fully written.
func (s *FileStore) Put(_ context.Context, name string, data []byte) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}

	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("write output: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("write output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("commit output: %w", err)
	}
	return path, nil
}

func (s *FileStore) resolve(name string) (string, error) {
	if s.Dir == "" {
		return filepath.Clean(name), nil
	}
	rel := filepath.Clean(strings.TrimLeft(filepath.ToSlash(name), "/"))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid output name %q", name)
	}
	return filepath.Join(s.Dir, rel), nil
}
