// Package artifact persists the results of a batch run as one JSON array
// that is rewritten atomically after every finished instance.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Multi-Agent-LLMs/mallm-sub000/internal/coordinator"
)

// Writer accumulates results and rewrites the output file on every Add.
// It is safe for concurrent use; writes are serialized.
type Writer struct {
	mu      sync.Mutex
	path    string
	results []coordinator.Result
}

// NewWriter creates a writer for path that starts from existing results.
func NewWriter(path string, existing []coordinator.Result) *Writer {
	return &Writer{path: path, results: append([]coordinator.Result(nil), existing...)}
}

// Add appends r and rewrites the file.
func (w *Writer) Add(r coordinator.Result) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.results = append(w.results, r)
	return WriteFile(w.path, w.results)
}

// Flush rewrites the file with the current results.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WriteFile(w.path, w.results)
}

// Results returns a copy of the accumulated results in completion order.
func (w *Writer) Results() []coordinator.Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]coordinator.Result(nil), w.results...)
}

// Path returns the output file path.
func (w *Writer) Path() string {
	return w.path
}

// Load reads results from path. A missing file yields no results.
func Load(path string) ([]coordinator.Result, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	var results []coordinator.Result
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse results %s: %w", path, err)
	}
	return results, nil
}

// Resume splits previous results into those worth keeping and the set of
// example ids that need no rerun. Failed results are discarded so their
// instances run again.
func Resume(previous []coordinator.Result) (keep []coordinator.Result, done map[string]bool) {
	done = make(map[string]bool, len(previous))
	for _, r := range previous {
		if r.Failed() || done[r.ExampleID] {
			continue
		}
		done[r.ExampleID] = true
		keep = append(keep, r)
	}
	return keep, done
}

// WriteFile encodes v as indented JSON into path through a temporary file
// in the same directory and an atomic rename.
func WriteFile(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempPath)
		}
	}()

	encoder := json.NewEncoder(tempFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("failed to encode results: %w", err)
	}
	if err := tempFile.Chmod(0o644); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("failed to set results file permissions: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to replace results file: %w", err)
	}
	cleanup = false
	return nil
}
