package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/stretchr/testify/require"

	"zkgraph/internal/chain"
	"zkgraph/internal/eventabi"
	"zkgraph/internal/filter"
	"zkgraph/internal/input"
	"zkgraph/internal/model"
	"zkgraph/internal/receipt"
	"zkgraph/internal/receipt/receipttest"
	"zkgraph/internal/stream"
)

type fakeSource struct {
	meta  model.BlockMeta
	raws  [][]byte
	calls []chain.BlockID
}

func (f *fakeSource) BlockMeta(_ context.Context, id chain.BlockID) (model.BlockMeta, error) {
	f.calls = append(f.calls, id)
	if id.IsHash && id.Hash != f.meta.Hash {
		return model.BlockMeta{}, ethereum.NotFound
	}
	if !id.IsHash && id.Number != f.meta.Number {
		return model.BlockMeta{}, ethereum.NotFound
	}
	return f.meta, nil
}

func (f *fakeSource) RawReceipts(_ context.Context, id chain.BlockID) ([][]byte, error) {
	f.calls = append(f.calls, id)
	if !id.IsHash || id.Hash != f.meta.Hash {
		return nil, ethereum.NotFound
	}
	return f.raws, nil
}

func newSource(t *testing.T) *fakeSource {
	raws := receipttest.Block(t)
	return &fakeSource{
		meta: model.BlockMeta{
			Number:       17633573,
			Hash:         common.HexToHash("0x9f0c5cb1b6ab8b1e61f1a9a0c5e3d3b2f3e9d8a7c6b5a4f3e2d1c0b9a8f7e6d5"),
			ReceiptsRoot: ReceiptsRoot(raws),
			TxCount:      len(raws),
		},
		raws: raws,
	}
}

func syncSpec() filter.EventMatchSpec {
	return filter.NewEventMatchSpec(receipttest.Target, []common.Hash{receipttest.SyncSig})
}

func TestGenerateSingleMatch(t *testing.T) {
	src := newSource(t)
	in, err := Generate(context.Background(), src, "17633573", "0xabcd", syncSpec(), Options{VerifyRoot: true})
	require.NoError(t, err)

	require.Equal(t, 3, in.ReceiptCount)
	require.Len(t, in.Filtered.Receipts, 1)
	require.Equal(t, 1, in.Filtered.Receipts[0].TxIndex)
	require.Equal(t, 1, in.Filtered.MatchedCount())
	require.Equal(t, src.raws[1], in.Stream)
	require.Len(t, in.Offsets, stream.OffsetArity)
	require.NoError(t, in.CheckNonEmpty())

	pub, err := input.ReadPublic(input.NewSliceSource(in.Public))
	require.NoError(t, err)
	require.Equal(t, src.meta.Number, pub.BlockNumber)
	require.Equal(t, src.meta.Hash, pub.BlockHash)
	require.Equal(t, "abcd", pub.ExpectedStateHex())

	priv, err := input.ReadPrivate(input.NewSliceSource(in.Private))
	require.NoError(t, err)
	require.Equal(t, in.Stream, priv.Stream)
	require.Equal(t, src.meta.ReceiptsRoot, priv.ReceiptsRoot)

	// receipts are read by hash once the header is known
	require.Len(t, src.calls, 2)
	require.False(t, src.calls[0].IsHash)
	require.True(t, src.calls[1].IsHash)
}

func TestGenerateByHash(t *testing.T) {
	src := newSource(t)
	in, err := Generate(context.Background(), src, src.meta.Hash.Hex(), "0x", syncSpec(), Options{})
	require.NoError(t, err)
	require.Equal(t, src.meta.Number, in.Block.Number)
}

func TestGenerateIsDeterministic(t *testing.T) {
	src := newSource(t)
	a, err := Generate(context.Background(), src, "17633573", "0x01", syncSpec(), Options{})
	require.NoError(t, err)
	b, err := Generate(context.Background(), src, "17633573", "0x01", syncSpec(), Options{})
	require.NoError(t, err)
	require.Equal(t, a.Public.Words(), b.Public.Words())
	require.Equal(t, a.Private.Words(), b.Private.Words())
	require.Equal(t, a.Offsets, b.Offsets)
}

func TestGenerateNoMatch(t *testing.T) {
	src := newSource(t)
	spec := filter.NewEventMatchSpec(common.HexToAddress("0x2222222222222222222222222222222222222222"), []common.Hash{receipttest.SyncSig})
	in, err := Generate(context.Background(), src, "17633573", "0x", spec, Options{})
	require.NoError(t, err)
	require.Empty(t, in.Stream)
	require.Empty(t, in.Offsets)
	require.True(t, errors.Is(in.CheckNonEmpty(), filter.ErrNoMatch))

	priv, err := input.ReadPrivate(input.NewSliceSource(in.Private))
	require.NoError(t, err)
	require.Empty(t, priv.Stream)
}

func TestGenerateRootMismatch(t *testing.T) {
	src := newSource(t)
	src.meta.ReceiptsRoot = common.HexToHash("0x01")
	_, err := Generate(context.Background(), src, "17633573", "0x", syncSpec(), Options{VerifyRoot: true})
	require.ErrorIs(t, err, ErrReceiptsRootMismatch)

	_, err = Generate(context.Background(), src, "17633573", "0x", syncSpec(), Options{})
	require.NoError(t, err)
}

func TestGenerateMalformedReceipt(t *testing.T) {
	src := newSource(t)
	src.raws = append(src.raws, []byte{0x02, 0xc0})
	_, err := Generate(context.Background(), src, "17633573", "0x", syncSpec(), Options{})

	var mre *receipt.MalformedReceiptError
	require.ErrorAs(t, err, &mre)
	require.Equal(t, 3, mre.TxIndex)
}

func TestGenerateRejectsBadArguments(t *testing.T) {
	src := newSource(t)
	_, err := Generate(context.Background(), src, "17633573", "0xzz", syncSpec(), Options{})
	require.Error(t, err)
	require.Empty(t, src.calls)

	_, err = Generate(context.Background(), src, "latest", "0x", syncSpec(), Options{})
	require.Error(t, err)

	_, err = Generate(context.Background(), src, "1", "0x", syncSpec(), Options{})
	require.ErrorIs(t, err, ethereum.NotFound)
}

func TestReceiptsRootMatchesGethDerivation(t *testing.T) {
	raws := receipttest.Block(t)
	receipts := make(types.Receipts, len(raws))
	for i, raw := range raws {
		r := new(types.Receipt)
		require.NoError(t, r.UnmarshalBinary(raw))
		receipts[i] = r
	}
	want := types.DeriveSha(receipts, trie.NewStackTrie(nil))
	require.Equal(t, want, ReceiptsRoot(raws))
	require.NoError(t, VerifyReceiptsRoot(raws, want))
	require.Equal(t, types.EmptyReceiptsHash, ReceiptsRoot(nil))
}

func TestRecord(t *testing.T) {
	src := newSource(t)
	in, err := Generate(context.Background(), src, "17633573", "0xabcd", syncSpec(), Options{})
	require.NoError(t, err)

	rec := in.Record()
	require.Equal(t, src.meta.Number, rec.BlockNumber)
	require.Equal(t, src.meta.Hash.Hex(), rec.BlockHash)
	require.Equal(t, 3, rec.ReceiptCount)
	require.Equal(t, 1, rec.MatchedCount)
	require.Equal(t, len(in.Stream), rec.StreamBytes)
	require.Equal(t, in.Public.String(), rec.PublicInput)
	require.Equal(t, input.FormatVersion, rec.FormatVersion)

	pub, err := input.ParseBuffer(rec.PublicInput)
	require.NoError(t, err)
	require.Equal(t, in.Public.Words(), pub.Words())
}

func TestRecordEvents(t *testing.T) {
	src := newSource(t)
	dec, err := eventabi.NewDecoder([]string{"Sync(uint112 reserve0, uint112 reserve1)"})
	require.NoError(t, err)

	spec := filter.NewEventMatchSpec(receipttest.Target, []common.Hash{receipttest.SyncSig, receipttest.TransferSig})
	in, err := Generate(context.Background(), src, "17633573", "0x", spec, Options{Decoder: dec})
	require.NoError(t, err)

	events := in.Record().Events
	require.Len(t, events, 2)
	require.Equal(t, uint64(1), events[0].TxIndex)
	require.Equal(t, uint64(2), events[1].TxIndex)
	require.Equal(t, in.Offsets[:stream.OffsetArity], events[0].Offsets)
	require.Equal(t, in.Offsets[stream.OffsetArity:], events[1].Offsets)
	require.Equal(t, receipttest.Target.Hex(), events[0].Address)
	require.Len(t, events[1].Topics, 3)

	require.NotNil(t, events[0].Decoded)
	require.Equal(t, "Sync", events[0].Decoded.Name)
	require.Equal(t, "1000", events[0].Decoded.Args[0].Value)
	require.Equal(t, "reserve1", events[0].Decoded.Args[1].Name)
	require.Equal(t, "2000", events[0].Decoded.Args[1].Value)
	require.Nil(t, events[1].Decoded)
}
