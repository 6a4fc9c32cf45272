package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"zkgraph/internal/chain"
	"zkgraph/internal/config"
	"zkgraph/internal/guest"
	"zkgraph/internal/mock"
	"zkgraph/internal/model"
	"zkgraph/internal/pipeline"
	"zkgraph/internal/prover"
)

type mode int

const (
	modeInputGen mode = iota
	modeTest
	modeProve
)

func (m mode) banner() string {
	switch m {
	case modeTest:
		return ">> PROVE: PRETEST MODE"
	case modeProve:
		return ">> PROVE: PROOF GENERATION MODE"
	default:
		return ">> PROVE: INPUT GENERATION MODE"
	}
}

func selectedMode(cmd *cobra.Command) mode {
	if on, _ := cmd.Flags().GetBool("test"); on {
		return modeTest
	}
	if on, _ := cmd.Flags().GetBool("prove"); on {
		return modeProve
	}
	return modeInputGen
}

func runProve(cmd *cobra.Command, args []string) error {
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

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	graph, err := loadGraph(cfg)
	if err != nil {
		return err
	}
	decoder, err := graph.Decoder()
	if err != nil {
		return err
	}
	handler, err := guest.HandlerByName(cfg.StateHandler)
	if err != nil {
		return err
	}

	m := selectedMode(cmd)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n\n", m.banner())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, chain.FetchConfig{
		BatchSize:     cfg.BatchSize,
		Concurrency:   cfg.FetchConcurrency,
		MaxRetries:    cfg.MaxRetries,
		RetryBackoff:  cfg.RetryBackoff,
		PerTxReceipts: cfg.PerTxReceipts,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	sinkSet, err := openSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sinkSet.Close()

	logger.Info("prove start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("block", args[0]),
		zap.String("address", graph.Address.Hex()),
		zap.Int("signatures", len(graph.Signatures)),
		zap.Bool("verify_root", cfg.VerifyRoot),
		zap.String("state_handler", cfg.StateHandler),
	)

	spec := graph.MatchSpec()
	inputs, err := pipeline.Generate(ctx, chainClient, args[0], args[1], spec, pipeline.Options{
		VerifyRoot: cfg.VerifyRoot,
		Decoder:    decoder,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	printSummary(out, args[0], inputs, decoder)
	if err := inputs.CheckNonEmpty(); err != nil && !cfg.AllowEmpty {
		return err
	}

	record := inputs.Record()
	if err := sinkSet.PutInputRecord(ctx, record); err != nil {
		return err
	}

	switch m {
	case modeTest:
		program := guest.Program{Matcher: spec, Handler: handler}
		res, err := program.Run(mock.NewHarness(inputs.Public, inputs.Private))
		if err != nil {
			return fmt.Errorf("mock execution: %w", err)
		}
		fmt.Fprintf(out, "[+] ZKWASM MOCK EXECUTION SUCCESS! %d %s in %d %s\n\n",
			res.Events, plural(res.Events, "event", "events"), res.Receipts, plural(res.Receipts, "receipt", "receipts"))
	case modeProve:
		if err := submit(ctx, out, cfg, record, sinkSet, logger); err != nil {
			return err
		}
	default:
		printBuffers(out, inputs.ExpectedState, inputs.Public, inputs.Private)
	}

	fmt.Fprintln(out, divider)
	return nil
}

func loadGraph(cfg config.Config) (config.GraphConfig, error) {
	if cfg.Address != "" {
		return config.NewGraphConfig(cfg.Address, cfg.Events)
	}
	return config.LoadGraph(cfg.Graph)
}

func resolveImageHash(cfg config.Config) (string, error) {
	if cfg.ImageHash != "" {
		return cfg.ImageHash, nil
	}
	if cfg.Wasm == "" {
		return "", fmt.Errorf("wasm path or image hash is required")
	}
	wasm, err := os.ReadFile(cfg.Wasm)
	if err != nil {
		return "", fmt.Errorf("read wasm: %w", err)
	}
	return prover.ImageHash(wasm), nil
}

func submit(ctx context.Context, out io.Writer, cfg config.Config, record model.InputRecord, sinkSet *sinks, logger *zap.Logger) error {
	imageHash, err := resolveImageHash(cfg)
	if err != nil {
		return err
	}
	client, err := prover.NewClient(cfg.ProverURL, cfg.PrivateKey, logger)
	if err != nil {
		return err
	}

	task, err := submitRecord(ctx, client, imageHash, record)
	if err != nil {
		var subErr *prover.SubmissionError
		if errors.As(err, &subErr) {
			fmt.Fprintf(out, "[*] IMAGE MD5: %s\n\n", imageHash)
			fmt.Fprintf(out, "[-] %s\n\n", subErr.Message)
		}
		return err
	}

	fmt.Fprintf(out, "[+] IMAGE MD5: %s\n\n", task.ImageHash)
	fmt.Fprintf(out, "[+] PROVE STARTED. TASK ID: %s\n\n", task.ID)

	sinkSet.PutProofTask(ctx, model.ProofTask{
		TaskID:      task.ID,
		ImageHash:   task.ImageHash,
		BlockNumber: record.BlockNumber,
		BlockHash:   record.BlockHash,
		SubmittedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	return nil
}
