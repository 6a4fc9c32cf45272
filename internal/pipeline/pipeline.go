// Package pipeline turns one block's receipts into the public and private
// input buffers of the zkgraph guest.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"zkgraph/internal/chain"
	"zkgraph/internal/eventabi"
	"zkgraph/internal/filter"
	"zkgraph/internal/input"
	"zkgraph/internal/model"
	"zkgraph/internal/stream"
)

var ErrReceiptsRootMismatch = errors.New("receipts root mismatch")

// Source provides the ledger reads of one block.
type Source interface {
	RawReceipts(ctx context.Context, id chain.BlockID) ([][]byte, error)
	BlockMeta(ctx context.Context, id chain.BlockID) (model.BlockMeta, error)
}

// Options tunes Generate.
type Options struct {
	// VerifyRoot recomputes the receipts trie root and compares it with the header.
	VerifyRoot bool
	// Decoder, when set, attaches decoded arguments to recorded events.
	Decoder *eventabi.Decoder
	Logger  *zap.Logger
}

// Inputs is everything produced for one block.
type Inputs struct {
	Block         model.BlockMeta
	ExpectedState string
	ReceiptCount  int
	Filtered      filter.Result
	Stream        []byte
	Offsets       []uint64
	Public        input.Buffer
	Private       input.Buffer

	decoder *eventabi.Decoder
	logger  *zap.Logger
}

// Generate fetches the receipts of blockID, keeps the ones holding events
// accepted by m and encodes the guest inputs. An empty selection is not an
// error here; see CheckNonEmpty.
func Generate(ctx context.Context, src Source, blockID string, expectedState string, m filter.Matcher, opts Options) (*Inputs, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if src == nil {
		return nil, fmt.Errorf("source is nil")
	}
	if m == nil {
		return nil, fmt.Errorf("matcher is nil")
	}

	id, err := chain.ParseBlockID(blockID)
	if err != nil {
		return nil, err
	}
	if _, err := input.ParseExpectedState(expectedState); err != nil {
		return nil, err
	}

	meta, err := src.BlockMeta(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch block %s: %w", id, err)
	}
	// Pin later reads to the hash so a reorg between calls cannot mix blocks.
	pinned := chain.BlockID{Number: meta.Number, Hash: meta.Hash, IsHash: true}
	raws, err := src.RawReceipts(ctx, pinned)
	if err != nil {
		return nil, fmt.Errorf("fetch receipts %s: %w", id, err)
	}
	logger.Info("receipts fetched",
		zap.Uint64("block_number", meta.Number),
		zap.String("block_hash", meta.Hash.Hex()),
		zap.Int("receipts", len(raws)),
	)

	if opts.VerifyRoot {
		if err := VerifyReceiptsRoot(raws, meta.ReceiptsRoot); err != nil {
			return nil, err
		}
	}

	res, err := filter.DecodeAndFilter(raws, m)
	if err != nil {
		return nil, err
	}
	streamBytes, offsets, err := stream.Build(res)
	if err != nil {
		return nil, fmt.Errorf("build stream: %w", err)
	}

	public, err := input.EncodePublic(meta.Number, meta.Hash, expectedState)
	if err != nil {
		return nil, err
	}
	private := input.EncodePrivate(streamBytes, meta.ReceiptsRoot)

	logger.Info("inputs generated",
		zap.Uint64("block_number", meta.Number),
		zap.Int("kept_receipts", len(res.Receipts)),
		zap.Int("events", res.MatchedCount()),
		zap.Int("stream_bytes", len(streamBytes)),
		zap.Int("public_words", public.Len()),
		zap.Int("private_words", private.Len()),
	)

	return &Inputs{
		Block:         meta,
		ExpectedState: expectedState,
		ReceiptCount:  len(raws),
		Filtered:      res,
		Stream:        streamBytes,
		Offsets:       offsets,
		Public:        public,
		Private:       private,
		decoder:       opts.Decoder,
		logger:        logger,
	}, nil
}

// CheckNonEmpty reports filter.ErrNoMatch when no event was selected.
func (in *Inputs) CheckNonEmpty() error {
	if in.Filtered.Empty() {
		return fmt.Errorf("block %d: %w", in.Block.Number, filter.ErrNoMatch)
	}
	return nil
}

// Record snapshots the inputs for storage and resubmission.
func (in *Inputs) Record() model.InputRecord {
	return model.InputRecord{
		BlockNumber:   in.Block.Number,
		BlockHash:     in.Block.Hash.Hex(),
		ReceiptsRoot:  in.Block.ReceiptsRoot.Hex(),
		ExpectedState: in.ExpectedState,
		ReceiptCount:  in.ReceiptCount,
		MatchedCount:  in.Filtered.MatchedCount(),
		StreamBytes:   len(in.Stream),
		Offsets:       in.Offsets,
		Events:        in.EventRecords(),
		PublicInput:   in.Public.String(),
		PrivateInput:  in.Private.String(),
		FormatVersion: input.FormatVersion,
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// EventRecords lists the matched events in offset order, each with its seven offset words.
func (in *Inputs) EventRecords() []model.EventRecord {
	// Offsets come from stream.Build, so their arity is always valid.
	records, _ := stream.Records(in.Offsets)

	var out []model.EventRecord
	for _, group := range in.Filtered.MatchedEvents() {
		for _, ev := range group {
			rec := model.EventRecord{
				TxIndex:  uint64(ev.TxIndex),
				LogIndex: uint64(ev.LogIndex),
				Address:  ev.Log.Address.Hex(),
				Topics:   make([]string, len(ev.Log.Topics)),
				Data:     hexutil.Encode(ev.Log.Data),
			}
			for i, topic := range ev.Log.Topics {
				rec.Topics[i] = topic.Hex()
			}
			if k := len(out); k < len(records) {
				words := records[k].Words()
				rec.Offsets = words[:]
			}
			if in.decoder != nil {
				decoded, ok, err := in.decoder.Decode(ev.Log)
				switch {
				case err != nil && in.logger != nil:
					in.logger.Warn("event decode failed", zap.Int("tx_index", ev.TxIndex), zap.Int("log_index", ev.LogIndex), zap.Error(err))
				case ok && err == nil:
					rec.Decoded = &decoded
				}
			}
			out = append(out, rec)
		}
	}
	return out
}
