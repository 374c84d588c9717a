package decisionpolicy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// saveCheckpoint writes the parameter snapshot as JSON. The write goes to a
// temp file in the same directory followed by a rename, so a crash mid-write
// never corrupts an existing checkpoint.
func saveCheckpoint(path string, p *params) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*.json")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close checkpoint: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish checkpoint: %w", err)
	}
	return nil
}

// loadCheckpoint reads a previously saved parameter snapshot. A missing
// file is reported via os.IsNotExist on the returned error.
func loadCheckpoint(path string) (*params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p params
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &p, nil
}
