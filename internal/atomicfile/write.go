// Package atomicfile provides crash-safe file writes for the two persisted
// JSON stores (profile.Store, resource.Indexer). Both rewrite their backing
// file on every mutation (spec.md §6.1); writing to a temp file and renaming
// avoids ever truncating the file in place (spec.md §9: "this is not done
// in the source and is an open improvement").
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// Write atomically replaces the file at path with data: it writes to a
// temp file in the same directory, then renames over the target so a
// concurrent reader never observes a partially-written file.
func Write(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %q: %w", dir, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file to %q: %w", path, err)
	}
	return nil
}
