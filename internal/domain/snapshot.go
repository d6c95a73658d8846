package domain

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveSnapshot writes the table as JSON, creating parent directories as
// needed. encoding/json emits the shortest decimal that round-trips each
// float64, so a save/load cycle preserves every coefficient exactly.
func SaveSnapshot(table *CoefficientTable, path string) error {
	if err := table.Validate(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}

	// Write-then-rename so a crash mid-write never leaves a torn snapshot.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a table previously written by SaveSnapshot and validates
// its invariants before returning it.
func LoadSnapshot(path string) (*CoefficientTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var table CoefficientTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	return &table, nil
}
