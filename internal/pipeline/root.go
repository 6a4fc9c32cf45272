package pipeline

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/trie"
)

// rawReceipts lets DeriveSha hash receipts exactly as the node returned them.
type rawReceipts [][]byte

func (r rawReceipts) Len() int { return len(r) }

func (r rawReceipts) EncodeIndex(i int, w *bytes.Buffer) {
	w.Write(r[i])
}

// ReceiptsRoot computes the receipts trie root over consensus-encoded receipts.
func ReceiptsRoot(raws [][]byte) common.Hash {
	return types.DeriveSha(rawReceipts(raws), trie.NewStackTrie(nil))
}

// VerifyReceiptsRoot fails with ErrReceiptsRootMismatch when raws do not hash to want.
func VerifyReceiptsRoot(raws [][]byte, want common.Hash) error {
	got := ReceiptsRoot(raws)
	if got != want {
		return fmt.Errorf("%w: computed %s, header %s", ErrReceiptsRootMismatch, got.Hex(), want.Hex())
	}
	return nil
}
