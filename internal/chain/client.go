package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"zkgraph/internal/model"
)

const methodNotFoundCode = -32601

// FetchConfig tunes how receipts are pulled from the node.
type FetchConfig struct {
	// BatchSize is the number of eth_getTransactionReceipt calls per batch request.
	BatchSize uint64
	// Concurrency bounds the batch requests in flight.
	Concurrency  int
	MaxRetries   int
	RetryBackoff time.Duration
	// PerTxReceipts skips debug_getRawReceipts.
	PerTxReceipts bool
}

// Client wraps go-ethereum RPC and provides the ledger reads the pipeline needs.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
	cfg       FetchConfig
	logger    *zap.Logger
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string, cfg FetchConfig, logger *zap.Logger) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	var chainID *big.Int
	err := withRetry(ctx, c.cfg.MaxRetries, c.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		chainID, err = c.ethClient.ChainID(ctx)
		return err
	})
	return chainID, err
}

type rpcBlock struct {
	Number       hexutil.Uint64 `json:"number"`
	Hash         common.Hash    `json:"hash"`
	ReceiptsRoot common.Hash    `json:"receiptsRoot"`
	Transactions []common.Hash  `json:"transactions"`
}

func (c *Client) block(ctx context.Context, id BlockID) (*rpcBlock, error) {
	method := "eth_getBlockByNumber"
	if id.IsHash {
		method = "eth_getBlockByHash"
	}

	var blk *rpcBlock
	err := withRetry(ctx, c.cfg.MaxRetries, c.cfg.RetryBackoff, func(ctx context.Context) error {
		err := c.rpcClient.CallContext(ctx, &blk, method, id.rpcArg(), false)
		if err != nil {
			c.logger.Warn("block fetch failed", zap.Error(err), zap.String("block", id.String()))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if blk == nil {
		return nil, fmt.Errorf("block %s: %w", id, ethereum.NotFound)
	}
	return blk, nil
}

// BlockMeta returns number, hash and receipts root of the block as reported by the node.
func (c *Client) BlockMeta(ctx context.Context, id BlockID) (model.BlockMeta, error) {
	blk, err := c.block(ctx, id)
	if err != nil {
		return model.BlockMeta{}, err
	}
	return model.BlockMeta{
		Number:       uint64(blk.Number),
		Hash:         blk.Hash,
		ReceiptsRoot: blk.ReceiptsRoot,
		TxCount:      len(blk.Transactions),
	}, nil
}

// RawReceipts returns the consensus-encoded receipts of the block in
// transaction index order. debug_getRawReceipts is used when the node serves
// it; otherwise receipts are fetched per transaction and re-encoded.
func (c *Client) RawReceipts(ctx context.Context, id BlockID) ([][]byte, error) {
	if !c.cfg.PerTxReceipts {
		raws, err := c.debugRawReceipts(ctx, id)
		if err == nil {
			return raws, nil
		}
		if !isMethodNotFound(err) {
			return nil, fmt.Errorf("debug_getRawReceipts: %w", err)
		}
		c.logger.Info("debug_getRawReceipts unavailable, fetching receipts per transaction", zap.String("block", id.String()))
	}

	blk, err := c.block(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.receiptsByTx(ctx, blk.Transactions)
}

func (c *Client) debugRawReceipts(ctx context.Context, id BlockID) ([][]byte, error) {
	var result []hexutil.Bytes
	err := withRetry(ctx, c.cfg.MaxRetries, c.cfg.RetryBackoff, func(ctx context.Context) error {
		err := c.rpcClient.CallContext(ctx, &result, "debug_getRawReceipts", id.rpcArg())
		if isMethodNotFound(err) {
			return permanent(err)
		}
		if err != nil {
			c.logger.Warn("raw receipts fetch failed", zap.Error(err), zap.String("block", id.String()))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	raws := make([][]byte, len(result))
	for i, raw := range result {
		raws[i] = raw
	}
	return raws, nil
}

// receiptsByTx fetches receipts in parallel batches; every batch writes into
// its own index range so the result keeps transaction order.
func (c *Client) receiptsByTx(ctx context.Context, hashes []common.Hash) ([][]byte, error) {
	out := make([][]byte, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}

	ranges, err := SplitRange(0, uint64(len(hashes)-1), c.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for _, r := range ranges {
		r := r
		g.Go(func() error {
			return c.fetchReceiptBatch(gctx, hashes, r, out)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) fetchReceiptBatch(ctx context.Context, hashes []common.Hash, r IndexRange, out [][]byte) error {
	receipts := make([]*types.Receipt, r.To-r.From+1)
	batch := make([]rpc.BatchElem, len(receipts))
	for i := range batch {
		batch[i] = rpc.BatchElem{
			Method: "eth_getTransactionReceipt",
			Args:   []interface{}{hashes[r.From+uint64(i)]},
			Result: &receipts[i],
		}
	}

	err := withRetry(ctx, c.cfg.MaxRetries, c.cfg.RetryBackoff, func(ctx context.Context) error {
		if err := c.rpcClient.BatchCallContext(ctx, batch); err != nil {
			c.logger.Warn("receipt batch failed", zap.Error(err), zap.Uint64("from", r.From), zap.Uint64("to", r.To))
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("receipt batch %d-%d: %w", r.From, r.To, err)
	}

	for i, elem := range batch {
		txIndex := r.From + uint64(i)
		if elem.Error != nil {
			return fmt.Errorf("receipt %d: %w", txIndex, elem.Error)
		}
		rc := receipts[i]
		if rc == nil {
			return fmt.Errorf("receipt %d: %w", txIndex, ethereum.NotFound)
		}
		if uint64(rc.TransactionIndex) != txIndex {
			return fmt.Errorf("receipt %d reports transaction index %d", txIndex, rc.TransactionIndex)
		}
		raw, err := rc.MarshalBinary()
		if err != nil {
			return fmt.Errorf("encode receipt %d: %w", txIndex, err)
		}
		out[txIndex] = raw
	}
	return nil
}

func isMethodNotFound(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode() == methodNotFoundCode
	}
	return false
}
