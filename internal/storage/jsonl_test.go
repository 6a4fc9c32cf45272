package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"zkgraph/internal/chain"
	"zkgraph/internal/model"
)

func TestJsonlStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "inputs.jsonl")
	store := NewJsonlStorage(path)
	ctx := context.Background()

	hash := common.HexToHash("0xaa").Hex()
	first := model.InputRecord{BlockNumber: 10, BlockHash: hash, PublicInput: "10 32 0 0 0 0 0", FormatVersion: 1}
	second := model.InputRecord{BlockNumber: 11, BlockHash: common.HexToHash("0xbb").Hex(), PublicInput: "11"}
	third := model.InputRecord{BlockNumber: 10, BlockHash: hash, PublicInput: "10 again"}

	for _, rec := range []model.InputRecord{first, second, third} {
		if err := store.PutInputRecord(ctx, rec); err != nil {
			t.Fatalf("put record: %v", err)
		}
	}

	records, err := store.ReadInputRecords()
	if err != nil {
		t.Fatalf("read records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("record count mismatch: got %d", len(records))
	}
	if records[0].PublicInput != first.PublicInput || records[0].FormatVersion != 1 {
		t.Fatalf("first record mismatch: %+v", records[0])
	}

	latest, ok, err := store.LatestInputRecord(ctx, chain.NumberID(10))
	if err != nil || !ok {
		t.Fatalf("latest by number: ok=%v err=%v", ok, err)
	}
	if latest.PublicInput != "10 again" {
		t.Fatalf("latest mismatch: got %q", latest.PublicInput)
	}

	id, err := chain.ParseBlockID(common.HexToHash("0xbb").Hex())
	if err != nil {
		t.Fatalf("parse id: %v", err)
	}
	latest, ok, err = store.LatestInputRecord(ctx, id)
	if err != nil || !ok || latest.BlockNumber != 11 {
		t.Fatalf("latest by hash mismatch: %+v ok=%v err=%v", latest, ok, err)
	}

	if _, ok, _ := store.LatestInputRecord(ctx, chain.NumberID(12)); ok {
		t.Fatalf("expected no record for block 12")
	}
}

func TestJsonlStorageMissingFile(t *testing.T) {
	store := NewJsonlStorage(filepath.Join(t.TempDir(), "missing.jsonl"))
	records, err := store.ReadInputRecords()
	if err != nil || len(records) != 0 {
		t.Fatalf("expected empty read, got %d records err=%v", len(records), err)
	}
}

func TestJsonlStorageBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	if err := os.WriteFile(path, []byte("{\"block_number\":1}\nnot json\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewJsonlStorage(path).ReadInputRecords(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestJsonlStorageTasks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.jsonl")
	store := NewJsonlStorage(path)
	if err := store.PutProofTask(context.Background(), model.ProofTask{TaskID: "t1", ImageHash: "ABC"}); err != nil {
		t.Fatalf("put task: %v", err)
	}
	data, err := os.ReadFile(store.TasksPath())
	if err != nil {
		t.Fatalf("read tasks: %v", err)
	}
	if string(data) == "" {
		t.Fatalf("tasks file is empty")
	}
	if store.TasksPath() != filepath.Join(filepath.Dir(path), "inputs.tasks.jsonl") {
		t.Fatalf("tasks path mismatch: %s", store.TasksPath())
	}
}
