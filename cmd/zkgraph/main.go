package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "zkgraph",
		Short:        "zkgraph receipt input generator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	proveCmd := &cobra.Command{
		Use:   "prove <block id> <expected state>",
		Short: "Generate inputs for a block and test or prove them",
		Args:  cobra.ExactArgs(2),
		RunE:  runProve,
	}

	proveCmd.Flags().BoolP("inputgen", "i", false, "generate and print the input buffers")
	proveCmd.Flags().BoolP("test", "t", false, "run the reference guest on the mock harness")
	proveCmd.Flags().BoolP("prove", "p", false, "submit the inputs to the prover")
	proveCmd.MarkFlagsMutuallyExclusive("inputgen", "test", "prove")
	proveCmd.MarkFlagsOneRequired("inputgen", "test", "prove")

	proveCmd.Flags().String("rpc", "", "JSON-RPC URL")
	proveCmd.Flags().String("graph", "./src/zkgraph.yaml", "zkgraph manifest")
	proveCmd.Flags().String("address", "", "contract address, overrides the manifest")
	proveCmd.Flags().StringArray("event", nil, "event signature or topic0 hash, repeatable; used with --address")
	proveCmd.Flags().Int("fetch-concurrency", 4, "receipt batches in flight when debug_getRawReceipts is unavailable")
	proveCmd.Flags().Uint64("batch-size", 100, "receipts per batch request")
	proveCmd.Flags().Bool("per-tx-receipts", false, "skip debug_getRawReceipts and fetch receipts per transaction")
	proveCmd.Flags().Bool("verify-root", true, "check receipts against the block receipts root")
	proveCmd.Flags().Bool("allow-empty", false, "continue when no event matches")
	proveCmd.Flags().String("state-handler", "none", "state computed by the mock guest (none, data-digest)")
	addProverFlags(proveCmd)
	addSinkFlags(proveCmd)
	addCommonFlags(proveCmd)

	root.AddCommand(proveCmd)

	resubmitCmd := &cobra.Command{
		Use:   "resubmit <block id>",
		Short: "Submit previously generated inputs again",
		Args:  cobra.ExactArgs(1),
		RunE:  runResubmit,
	}
	addProverFlags(resubmitCmd)
	addSinkFlags(resubmitCmd)
	addCommonFlags(resubmitCmd)

	root.AddCommand(resubmitCmd)

	return root
}

func addProverFlags(cmd *cobra.Command) {
	cmd.Flags().String("prover-url", "", "proving service URL")
	cmd.Flags().String("private-key", "", "hex private key used to sign proving requests")
	cmd.Flags().String("wasm", "./build/zkgraph_full.wasm", "compiled guest wasm, hashed into the image id")
	cmd.Flags().String("image-hash", "", "image id, overrides hashing --wasm")
}

func addSinkFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("outfile", "o", "", "single input record JSON file")
	cmd.Flags().String("out", "", "input records JSONL path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for input records and proof tasks")
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
