package stream

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"zkgraph/internal/filter"
	"zkgraph/internal/receipt"
	"zkgraph/internal/receipt/receipttest"
)

func syncSpec() filter.EventMatchSpec {
	return filter.NewEventMatchSpec(receipttest.Target, []common.Hash{receipttest.SyncSig})
}

func TestBuildSingleMatchScenario(t *testing.T) {
	block := receipttest.Block(t)
	res, err := filter.DecodeAndFilter(block, syncSpec())
	require.NoError(t, err)

	stream, offsets, err := Build(res)
	require.NoError(t, err)
	require.Len(t, res.RawReceipts(), 1)
	require.Len(t, offsets, OffsetArity)
	require.Equal(t, len(block[1]), len(stream))
	require.True(t, bytes.Equal(block[1], stream))

	recs, err := Records(offsets)
	require.NoError(t, err)
	require.Equal(t, uint64(0), recs[0].TxOffset)
	require.Equal(t, 1, recs[0].TopicCount())
}

func TestBuildEmpty(t *testing.T) {
	spec := filter.NewEventMatchSpec(common.HexToAddress("0x3333333333333333333333333333333333333333"), []common.Hash{receipttest.SyncSig})
	res, err := filter.DecodeAndFilter(receipttest.Block(t), spec)
	require.NoError(t, err)

	stream, offsets, err := Build(res)
	require.NoError(t, err)
	require.Empty(t, stream)
	require.Empty(t, offsets)
}

func multiBlock(t *testing.T) [][]byte {
	return [][]byte{
		receipttest.Receipt(t, types.DynamicFeeTxType, 1,
			receipttest.Log(receipttest.Target, bytes.Repeat([]byte{0x11}, 64), receipttest.SyncSig),
			receipttest.Log(receipttest.Other, nil, receipttest.SyncSig),
			receipttest.Log(receipttest.Target, []byte{0x05}, receipttest.TransferSig,
				common.HexToHash("0xaa"), common.HexToHash("0xbb"), common.HexToHash("0xcc")),
		),
		receipttest.Receipt(t, types.LegacyTxType, 2,
			receipttest.Log(receipttest.Other, []byte{0x01}, receipttest.TransferSig),
		),
		receipttest.Receipt(t, types.AccessListTxType, 3,
			receipttest.Log(receipttest.Target, nil, receipttest.TransferSig, common.HexToHash("0x01")),
		),
		receipttest.Receipt(t, types.LegacyTxType, 4,
			receipttest.Log(receipttest.Target, bytes.Repeat([]byte{0x22}, 300), receipttest.SyncSig),
		),
	}
}

func TestBuildOffsetsReSliceEvents(t *testing.T) {
	spec := filter.NewEventMatchSpec(receipttest.Target, []common.Hash{receipttest.SyncSig, receipttest.TransferSig})
	res, err := filter.DecodeAndFilter(multiBlock(t), spec)
	require.NoError(t, err)
	require.Len(t, res.Receipts, 3)

	stream, offsets, err := Build(res)
	require.NoError(t, err)
	require.Zero(t, len(offsets)%OffsetArity)
	require.Equal(t, res.MatchedCount(), len(offsets)/OffsetArity)

	recs, err := Records(offsets)
	require.NoError(t, err)

	i := 0
	for _, group := range res.MatchedEvents() {
		for _, ev := range group {
			located, err := Locate(stream, recs[i])
			require.NoError(t, err)
			require.Equal(t, ev.Log.Address, located.Address)
			require.Equal(t, ev.Log.Topics, located.Topics)
			require.True(t, bytes.Equal(ev.Log.Data, located.Data), "event %d data mismatch", i)
			i++
		}
	}
	require.Equal(t, len(recs), i)
}

func TestBuildOffsetsMatchReDecodedStream(t *testing.T) {
	spec := filter.NewEventMatchSpec(receipttest.Target, []common.Hash{receipttest.SyncSig, receipttest.TransferSig})
	res, err := filter.DecodeAndFilter(multiBlock(t), spec)
	require.NoError(t, err)

	stream, offsets, err := Build(res)
	require.NoError(t, err)

	parts, err := receipt.SplitStream(stream)
	require.NoError(t, err)
	require.Len(t, parts, len(res.Receipts))

	redone, err := filter.DecodeAndFilter(parts, spec)
	require.NoError(t, err)
	require.Equal(t, res.MatchedCount(), redone.MatchedCount())

	// Re-decoded receipts are indexed by their stream position, so the offsets
	// computed from them must equal the original ones.
	_, again, err := Build(redone)
	require.NoError(t, err)
	require.Equal(t, offsets, again)

	recs, err := Records(offsets)
	require.NoError(t, err)
	pos := 0
	i := 0
	for idx, part := range parts {
		decoded, err := receipt.Decode(part)
		require.NoError(t, err)
		for _, log := range decoded.Logs {
			if !spec.Match(log) {
				continue
			}
			require.Equal(t, uint64(pos), recs[i].TxOffset, "receipt %d", idx)
			require.Equal(t, uint64(pos+log.Span.Start), recs[i].LogOffset)
			require.Equal(t, uint64(pos+log.Span.Data), recs[i].DataOffset)
			i++
		}
		pos += len(part)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	spec := filter.NewEventMatchSpec(receipttest.Target, []common.Hash{receipttest.SyncSig})
	block := multiBlock(t)

	res1, err := filter.DecodeAndFilter(block, spec)
	require.NoError(t, err)
	res2, err := filter.DecodeAndFilter(block, spec)
	require.NoError(t, err)

	s1, o1, err := Build(res1)
	require.NoError(t, err)
	s2, o2, err := Build(res2)
	require.NoError(t, err)
	require.Equal(t, s1, s2)
	require.Equal(t, o1, o2)
}

func TestBuildRejectsTooManyTopics(t *testing.T) {
	raw := receipttest.Receipt(t, types.LegacyTxType, 1, receipttest.Log(receipttest.Target, nil, receipttest.SyncSig))
	decoded, err := receipt.Decode(raw)
	require.NoError(t, err)

	log := decoded.Logs[0]
	log.Span.Topics = []int{1, 2, 3, 4, 5}
	events := [][]filter.Event{{{TxIndex: 0, LogIndex: 0, Log: log, Matched: true}}}

	_, _, err = BuildFrom([][]byte{raw}, events)
	require.Error(t, err)

	_, _, err = BuildFrom([][]byte{raw}, nil)
	require.Error(t, err)
}

func TestRecordsRoundTrip(t *testing.T) {
	_, err := Records(make([]uint64, 8))
	require.ErrorIs(t, err, ErrOffsetArity)

	recs := []EventOffsetRecord{
		{TxOffset: 0, LogOffset: 300, Topics: [MaxTopics]uint64{303, 336, 0, 0}, DataOffset: 368},
	}
	back, err := Records(Flatten(recs))
	require.NoError(t, err)
	require.Equal(t, recs, back)
	require.Equal(t, 2, back[0].TopicCount())
}
