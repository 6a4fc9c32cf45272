package chain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// BlockID selects a block by number or by hash.
type BlockID struct {
	Number uint64
	Hash   common.Hash
	IsHash bool
}

// ParseBlockID treats inputs of 64 or more hex characters as a block hash and
// anything else as a decimal block number.
func ParseBlockID(input string) (BlockID, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return BlockID{}, fmt.Errorf("block id is required")
	}

	body := strings.TrimPrefix(strings.TrimPrefix(input, "0x"), "0X")
	if len(body) >= 2*common.HashLength {
		data, err := hexutil.Decode("0x" + body)
		if err != nil || len(data) != common.HashLength {
			return BlockID{}, fmt.Errorf("invalid block hash: %s", input)
		}
		return BlockID{Hash: common.BytesToHash(data), IsHash: true}, nil
	}

	number, err := strconv.ParseUint(input, 10, 64)
	if err != nil {
		return BlockID{}, fmt.Errorf("invalid block number: %s", input)
	}
	return BlockID{Number: number}, nil
}

// NumberID selects a block by number.
func NumberID(number uint64) BlockID {
	return BlockID{Number: number}
}

func (id BlockID) String() string {
	if id.IsHash {
		return id.Hash.Hex()
	}
	return strconv.FormatUint(id.Number, 10)
}

// rpcArg is the JSON-RPC parameter for the block.
func (id BlockID) rpcArg() string {
	if id.IsHash {
		return id.Hash.Hex()
	}
	return hexutil.EncodeUint64(id.Number)
}
