// Package history persists the append-only logs the pipeline uses for
// deduplication: uploaded video records and generated script
// fingerprints. Every log is capped so the files never grow without
// bound.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultCap is how many entries a log keeps before the oldest are
// dropped.
const DefaultCap = 100

// Log is a capped append-only JSON list stored at a fixed path.
type Log[T any] struct {
	path string
	cap  int
}

// NewLog opens (or lazily creates) the log at path.
func NewLog[T any](path string, capacity int) *Log[T] {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Log[T]{path: path, cap: capacity}
}

// Load reads all entries. A missing file is an empty log, and a
// corrupt file is treated the same way so a bad write can never wedge
// the pipeline.
func (l *Log[T]) Load() []T {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil
	}
	var entries []T
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil
	}
	return entries
}

// Append adds an entry, trims to capacity (oldest first) and writes
// the file back atomically-enough for a single-writer pipeline.
func (l *Log[T]) Append(entry T) error {
	entries := append(l.Load(), entry)
	if len(entries) > l.cap {
		entries = entries[len(entries)-l.cap:]
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first. n <= 0 returns
// everything.
func (l *Log[T]) Recent(n int) []T {
	entries := l.Load()
	if n <= 0 || n > len(entries) {
		n = len(entries)
	}
	out := make([]T, 0, n)
	for i := len(entries) - 1; i >= len(entries)-n; i-- {
		out = append(out, entries[i])
	}
	return out
}

// Len reports the current number of entries.
func (l *Log[T]) Len() int {
	return len(l.Load())
}
