package eventabi

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"zkgraph/internal/receipt"
	"zkgraph/internal/receipt/receipttest"
)

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent("event Transfer(address indexed from, address indexed to, uint256 value)")
	require.NoError(t, err)
	require.Equal(t, "Transfer(address,address,uint256)", ev.Sig)
	require.Equal(t, receipttest.TransferSig, ev.ID)
	require.True(t, ev.ExplicitIndexed)
	require.Equal(t, "from", ev.Inputs[0].Name)

	ev, err = ParseEvent("Sync(uint112,uint112)")
	require.NoError(t, err)
	require.Equal(t, receipttest.SyncSig, ev.ID)
	require.False(t, ev.ExplicitIndexed)
	require.Equal(t, "arg1", ev.Inputs[1].Name)

	for _, bad := range []string{"Sync", "(uint256)", "Sync(uint112", "Sync(notatype)", "Sync(uint256 a b)", "Sync((uint256,uint256))"} {
		_, err := ParseEvent(bad)
		require.Error(t, err, bad)
	}

	sig, err := Canonical("Approval(address indexed owner,address indexed spender,uint256 value)")
	require.NoError(t, err)
	require.Equal(t, "Approval(address,address,uint256)", sig)
}

func decodeLog(t *testing.T, raw []byte, index int) receipt.Log {
	t.Helper()
	decoded, err := receipt.Decode(raw)
	require.NoError(t, err)
	return decoded.Logs[index]
}

func TestDecoderDecode(t *testing.T) {
	dec, err := NewDecoder([]string{
		"Sync(uint112 reserve0, uint112 reserve1)",
		"Transfer(address,address,uint256)",
		receipttest.SyncSig.Hex(),
	})
	require.NoError(t, err)

	block := receipttest.Block(t)
	sync, ok, err := dec.Decode(decodeLog(t, block[1], 0))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Sync", sync.Name)
	require.Equal(t, "Sync(uint112,uint112)", sync.Signature)
	require.Len(t, sync.Args, 2)
	require.Equal(t, "reserve0", sync.Args[0].Name)
	require.Equal(t, "uint112", sync.Args[0].Type)
	require.Equal(t, "1000", sync.Args[0].Value)
	require.Equal(t, "2000", sync.Args[1].Value)

	// Transfer(address,address,uint256) with both addresses in topics.
	from := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	to := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	raw := receipttest.Receipt(t, types.LegacyTxType, 1,
		receipttest.Log(receipttest.Target, common.LeftPadBytes([]byte{0x2a}, 32),
			receipttest.TransferSig, common.BytesToHash(from.Bytes()), common.BytesToHash(to.Bytes())),
	)
	transfer, ok, err := dec.Decode(decodeLog(t, raw, 0))
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, transfer.Args[0].Indexed)
	require.Equal(t, from.Hex(), transfer.Args[0].Value)
	require.Equal(t, to.Hex(), transfer.Args[1].Value)
	require.False(t, transfer.Args[2].Indexed)
	require.Equal(t, "42", transfer.Args[2].Value)
}

func TestDecoderUnknownAndBroken(t *testing.T) {
	dec, err := NewDecoder([]string{"Sync(uint112,uint112)"})
	require.NoError(t, err)

	block := receipttest.Block(t)
	_, ok, err := dec.Decode(decodeLog(t, block[0], 0))
	require.NoError(t, err)
	require.False(t, ok)

	// topic0 is known but the data is too short for two words.
	raw := receipttest.Receipt(t, types.LegacyTxType, 1, receipttest.Log(receipttest.Target, []byte{0x01}, receipttest.SyncSig))
	_, ok, err = dec.Decode(decodeLog(t, raw, 0))
	require.True(t, ok)
	require.Error(t, err)

	var nilDecoder *Decoder
	require.False(t, nilDecoder.CanDecode(receipttest.SyncSig))
}

func TestFormatValue(t *testing.T) {
	require.Equal(t, "0x0102", formatValue([]byte{1, 2}))
	require.Equal(t, "0x0a0b", formatValue([2]byte{0x0a, 0x0b}))
	require.Equal(t, "true", formatValue(true))
	require.Equal(t, "7", formatValue(uint8(7)))
}
