package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"apartment-harvester/models"
)

// SnapshotWriter writes the end-of-run JSON artifact: every attempted
// record with its floor plans, independent of the database. The write
// is atomic (temp file + rename) so a crash mid-flush never leaves a
// truncated snapshot behind.
type SnapshotWriter struct {
	path string
}

// NewSnapshotWriter creates a writer targeting path. Intermediate
// directories are created on the first write.
func NewSnapshotWriter(path string) *SnapshotWriter {
	return &SnapshotWriter{path: path}
}

// Write replaces the snapshot with the given records. A nil slice is
// written as an empty array so the artifact always parses.
func (w *SnapshotWriter) Write(records []*models.PropertyRecord) error {
	if records == nil {
		records = []*models.PropertyRecord{}
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("snapshot: create output dir: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("snapshot: temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("snapshot: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("snapshot: close: %w", err)
	}

	if err := os.Rename(tmp.Name(), w.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	return nil
}

// Path returns the snapshot destination.
func (w *SnapshotWriter) Path() string {
	return w.path
}
