package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"zkgraph/internal/chain"
	"zkgraph/internal/model"
)

const maxLineBytes = 64 << 20

// JsonlStorage writes input records to a JSONL file. Proof tasks go to a
// sibling file with the .tasks.jsonl suffix.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// TasksPath is the file proof tasks are appended to.
func (s *JsonlStorage) TasksPath() string {
	return strings.TrimSuffix(s.path, ".jsonl") + ".tasks.jsonl"
}

// PutInputRecord appends one record as a JSON line.
func (s *JsonlStorage) PutInputRecord(_ context.Context, record model.InputRecord) error {
	return s.appendLine(s.path, record)
}

// PutProofTask appends one proof task as a JSON line.
func (s *JsonlStorage) PutProofTask(_ context.Context, task model.ProofTask) error {
	return s.appendLine(s.TasksPath(), task)
}

func (s *JsonlStorage) appendLine(path string, v interface{}) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// ReadInputRecords returns every record in file order. A missing file holds no records.
func (s *JsonlStorage) ReadInputRecords() ([]model.InputRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open records: %w", err)
	}
	defer file.Close()

	var records []model.InputRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record model.InputRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("parse record at line %d: %w", lineNo, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return records, nil
}

// LatestInputRecord returns the last record written for id.
func (s *JsonlStorage) LatestInputRecord(_ context.Context, id chain.BlockID) (model.InputRecord, bool, error) {
	records, err := s.ReadInputRecords()
	if err != nil {
		return model.InputRecord{}, false, err
	}
	for i := len(records) - 1; i >= 0; i-- {
		if MatchesBlock(records[i], id) {
			return records[i], true, nil
		}
	}
	return model.InputRecord{}, false, nil
}
