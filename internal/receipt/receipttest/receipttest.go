// Package receipttest builds consensus-encoded receipts for tests.
package receipttest

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// Target is the contract address used by the fixtures.
	Target = common.HexToAddress("0xa60a0f4d6f3a1f1b1c9c1b0d1e2f3a4b5c6d7e8f")
	// Other is an unrelated emitter.
	Other = common.HexToAddress("0x1111111111111111111111111111111111111111")
	// SyncSig is keccak256("Sync(uint112,uint112)").
	SyncSig = common.HexToHash("0x1c411e9a96e071241c2f21f7726b17ae89e3cab4c78be50e062b03a9fffbbad1")
	// TransferSig is keccak256("Transfer(address,address,uint256)").
	TransferSig = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")
	// SyncData encodes reserves 1000 and 2000.
	SyncData = common.FromHex("0x00000000000000000000000000000000000000000000000000000000000003e8" +
		"00000000000000000000000000000000000000000000000000000000000007d0")
)

// Log returns a log with the given emitter, topics and data.
func Log(address common.Address, data []byte, topics ...common.Hash) *types.Log {
	return &types.Log{Address: address, Topics: topics, Data: data}
}

// Receipt encodes a successful receipt of the given type holding logs.
func Receipt(t testing.TB, txType uint8, cumulativeGas uint64, logs ...*types.Log) []byte {
	t.Helper()
	return encode(t, &types.Receipt{
		Type:              txType,
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: cumulativeGas,
		Logs:              logs,
	})
}

// FailedReceipt encodes a reverted receipt without logs.
func FailedReceipt(t testing.TB, txType uint8, cumulativeGas uint64) []byte {
	t.Helper()
	return encode(t, &types.Receipt{
		Type:              txType,
		Status:            types.ReceiptStatusFailed,
		CumulativeGasUsed: cumulativeGas,
	})
}

// PostStateReceipt encodes a pre-Byzantium receipt carrying a state root.
func PostStateReceipt(t testing.TB, root common.Hash, cumulativeGas uint64, logs ...*types.Log) []byte {
	t.Helper()
	return encode(t, &types.Receipt{
		PostState:         root.Bytes(),
		CumulativeGasUsed: cumulativeGas,
		Logs:              logs,
	})
}

func encode(t testing.TB, r *types.Receipt) []byte {
	t.Helper()
	r.Bloom = types.CreateBloom(types.Receipts{r})
	raw, err := r.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal receipt: %v", err)
	}
	return raw
}

// Block returns three receipts where only index 1 carries a Sync log from Target.
func Block(t testing.TB) [][]byte {
	t.Helper()
	return [][]byte{
		Receipt(t, types.LegacyTxType, 21000,
			Log(Other, []byte{0x01}, TransferSig),
		),
		Receipt(t, types.DynamicFeeTxType, 90000,
			Log(Target, SyncData, SyncSig),
			Log(Other, nil, SyncSig),
		),
		Receipt(t, types.AccessListTxType, 120000,
			Log(Target, []byte{0x02}, TransferSig, common.HexToHash("0x01"), common.HexToHash("0x02")),
		),
	}
}
