package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"zkgraph/internal/config"
	"zkgraph/internal/model"
	"zkgraph/internal/storage"
	"zkgraph/internal/storage/postgres"
)

// sinks fans records out to every configured store.
type sinks struct {
	records []storage.Storage
	tasks   []storage.TaskStorage
	sources []storage.RecordSource
	closers []func()
	logger  *zap.Logger
}

func openSinks(ctx context.Context, cfg config.Config, logger *zap.Logger) (*sinks, error) {
	s := &sinks{logger: logger}
	if cfg.OutFile != "" {
		file := storage.NewInputFile(cfg.OutFile)
		s.records = append(s.records, file)
		s.sources = append(s.sources, file)
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		s.records = append(s.records, store)
		s.tasks = append(s.tasks, store)
		s.sources = append(s.sources, store)
		s.closers = append(s.closers, store.Close)
	}
	if cfg.Out != "" {
		jsonl := storage.NewJsonlStorage(cfg.Out)
		s.records = append(s.records, jsonl)
		s.tasks = append(s.tasks, jsonl)
		s.sources = append(s.sources, jsonl)
	}
	return s, nil
}

func (s *sinks) Close() {
	for _, c := range s.closers {
		c()
	}
}

func (s *sinks) PutInputRecord(ctx context.Context, record model.InputRecord) error {
	for _, r := range s.records {
		if err := r.PutInputRecord(ctx, record); err != nil {
			return fmt.Errorf("store input record: %w", err)
		}
	}
	if len(s.records) > 0 {
		s.logger.Info("input record stored", zap.Uint64("block_number", record.BlockNumber), zap.Int("sinks", len(s.records)))
	}
	return nil
}

// PutProofTask logs instead of failing: the task already exists on the prover.
func (s *sinks) PutProofTask(ctx context.Context, task model.ProofTask) {
	for _, t := range s.tasks {
		if err := t.PutProofTask(ctx, task); err != nil {
			s.logger.Warn("store proof task failed", zap.String("task_id", task.TaskID), zap.Error(err))
		}
	}
}
