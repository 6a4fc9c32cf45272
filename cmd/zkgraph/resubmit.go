package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"zkgraph/internal/chain"
	"zkgraph/internal/config"
	"zkgraph/internal/input"
	"zkgraph/internal/model"
	"zkgraph/internal/prover"
	"zkgraph/internal/storage"
)

type submitter interface {
	Submit(ctx context.Context, req prover.Request) (prover.Task, error)
}

// submitRecord sends the stored buffers unchanged.
func submitRecord(ctx context.Context, client submitter, imageHash string, record model.InputRecord) (prover.Task, error) {
	if record.FormatVersion != input.FormatVersion {
		return prover.Task{}, fmt.Errorf("input record format %d, want %d", record.FormatVersion, input.FormatVersion)
	}
	public, err := input.ParseBuffer(record.PublicInput)
	if err != nil {
		return prover.Task{}, fmt.Errorf("parse public input: %w", err)
	}
	private, err := input.ParseBuffer(record.PrivateInput)
	if err != nil {
		return prover.Task{}, fmt.Errorf("parse private input: %w", err)
	}
	return client.Submit(ctx, prover.Request{
		ImageHash: imageHash,
		Public:    public.Fields(),
		Private:   private.Fields(),
	})
}

func latestRecord(ctx context.Context, sources []storage.RecordSource, id chain.BlockID) (model.InputRecord, error) {
	for _, src := range sources {
		record, ok, err := src.LatestInputRecord(ctx, id)
		if err != nil {
			return model.InputRecord{}, err
		}
		if ok {
			return record, nil
		}
	}
	return model.InputRecord{}, fmt.Errorf("no input record for block %s", id)
}

func runResubmit(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	id, err := chain.ParseBlockID(args[0])
	if err != nil {
		return err
	}
	if cfg.Out == "" && cfg.OutFile == "" && cfg.PGDSN == "" {
		return fmt.Errorf("--outfile, --out or --pg-dsn is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinkSet, err := openSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sinkSet.Close()

	record, err := latestRecord(ctx, sinkSet.sources, id)
	if err != nil {
		return err
	}
	logger.Info("resubmitting input record",
		zap.Uint64("block_number", record.BlockNumber),
		zap.String("block_hash", record.BlockHash),
		zap.String("generated_at", record.GeneratedAt),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, ">> PROVE: RESUBMIT %s (generated %s)\n\n", id, record.GeneratedAt)
	if err := submit(ctx, out, cfg, record, sinkSet, logger); err != nil {
		return err
	}
	fmt.Fprintln(out, divider)
	return nil
}
