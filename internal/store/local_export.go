package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kisandoctor/internal/logging"
)

// sqliteHeader opens every SQLite database file.
const sqliteHeader = "SQLite format 3\x00"

// ExportSnapshot returns a consistent copy of the whole database file.
func (s *LocalStore) ExportSnapshot(ctx context.Context) ([]byte, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ExportSnapshot")
	defer timer.Stop()

	dir, err := os.MkdirTemp("", "kisan-export-*")
	if err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	defer os.RemoveAll(dir)
	target := filepath.Join(dir, "snapshot.sqlite")

	s.mu.Lock()
	_, err = s.db.ExecContext(ctx, "VACUUM INTO ?", target)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("vacuum into snapshot: %w", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	logging.Store("Exported database snapshot (%d bytes)", len(data))
	return data, nil
}

// IsSnapshot reports whether data starts with the SQLite file header.
func IsSnapshot(data []byte) bool {
	return strings.HasPrefix(string(data), sqliteHeader)
}
