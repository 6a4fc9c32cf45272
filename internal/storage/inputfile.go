package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"zkgraph/internal/chain"
	"zkgraph/internal/model"
)

// InputFile persists a single input record as an indented JSON document.
type InputFile struct {
	path string
}

func NewInputFile(path string) *InputFile {
	return &InputFile{path: path}
}

// Load reads the record. ok is false when the file does not exist.
func (f *InputFile) Load() (model.InputRecord, bool, error) {
	stat, err := os.Stat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.InputRecord{}, false, nil
		}
		return model.InputRecord{}, false, fmt.Errorf("stat input file: %w", err)
	}
	if stat.IsDir() {
		return model.InputRecord{}, false, fmt.Errorf("input file path is a directory")
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return model.InputRecord{}, false, fmt.Errorf("read input file: %w", err)
	}

	var record model.InputRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.InputRecord{}, false, fmt.Errorf("parse input file: %w", err)
	}
	return record, true, nil
}

// PutInputRecord replaces the file contents atomically.
func (f *InputFile) PutInputRecord(_ context.Context, record model.InputRecord) error {
	dir := filepath.Dir(f.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create input file dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal input file: %w", err)
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write input file tmp: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("rename input file: %w", err)
	}
	return nil
}

// LatestInputRecord returns the stored record when it belongs to id.
func (f *InputFile) LatestInputRecord(_ context.Context, id chain.BlockID) (model.InputRecord, bool, error) {
	record, ok, err := f.Load()
	if err != nil || !ok {
		return model.InputRecord{}, false, err
	}
	if !MatchesBlock(record, id) {
		return model.InputRecord{}, false, nil
	}
	return record, true, nil
}
