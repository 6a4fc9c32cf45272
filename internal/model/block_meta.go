package model

import "github.com/ethereum/go-ethereum/common"

// BlockMeta is the block header subset the proof inputs depend on.
type BlockMeta struct {
	Number       uint64      `json:"number"`
	Hash         common.Hash `json:"hash"`
	ReceiptsRoot common.Hash `json:"receipts_root"`
	TxCount      int         `json:"tx_count"`
}
