package analytics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var errBadCategory = errors.New("invalid analytics category")

// FileWriter appends JSON lines to <dir>/<category>/<day>.json.
type FileWriter struct {
	mu  sync.Mutex
	dir string
}

// NewFileWriter creates the base directory if needed.
func NewFileWriter(dir string) (*FileWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create analytics dir: %w", err)
	}
	return &FileWriter{dir: dir}, nil
}

func (w *FileWriter) Write(_ context.Context, category, day string, line []byte) error {
	if category == "" || strings.ContainsAny(category, `/\`) || category == "." || category == ".." {
		return fmt.Errorf("%w: %q", errBadCategory, category)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	folder := filepath.Join(w.dir, category)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(folder, day+".json"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (w *FileWriter) Close() error { return nil }
