package eventabi

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"zkgraph/internal/model"
	"zkgraph/internal/receipt"
)

// Decoder renders logs whose topic0 belongs to a known declaration.
type Decoder struct {
	events map[common.Hash]Event
}

// NewDecoder parses every declaration; raw topic hashes are skipped since
// they carry no parameter types.
func NewDecoder(decls []string) (*Decoder, error) {
	d := &Decoder{events: make(map[common.Hash]Event)}
	for _, decl := range decls {
		if !IsDeclaration(decl) {
			continue
		}
		ev, err := ParseEvent(decl)
		if err != nil {
			return nil, err
		}
		d.events[ev.ID] = ev
	}
	return d, nil
}

// CanDecode reports whether topic0 has a known declaration.
func (d *Decoder) CanDecode(topic0 common.Hash) bool {
	if d == nil {
		return false
	}
	_, ok := d.events[topic0]
	return ok
}

// Decode unpacks log into named arguments. ok is false when topic0 is unknown.
func (d *Decoder) Decode(log receipt.Log) (model.DecodedEvent, bool, error) {
	topic0, has := log.Topic0()
	if !has || !d.CanDecode(topic0) {
		return model.DecodedEvent{}, false, nil
	}
	ev := d.events[topic0]
	inputs := ev.arguments(len(log.Topics) - 1)

	var indexed, plain abi.Arguments
	for _, arg := range inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		} else {
			plain = append(plain, arg)
		}
	}
	if len(indexed) != len(log.Topics)-1 {
		return model.DecodedEvent{}, true, fmt.Errorf("%s: %d indexed params, log has %d topics", ev.Sig, len(indexed), len(log.Topics)-1)
	}

	values, err := plain.Unpack(log.Data)
	if err != nil {
		return model.DecodedEvent{}, true, fmt.Errorf("unpack %s: %w", ev.Sig, err)
	}

	out := model.DecodedEvent{Name: ev.Name, Signature: ev.Sig}
	topicIdx, plainIdx := 1, 0
	for _, arg := range inputs {
		da := model.DecodedArg{Name: arg.Name, Type: arg.Type.String(), Indexed: arg.Indexed}
		if arg.Indexed {
			da.Value = topicValue(arg, log.Topics[topicIdx])
			topicIdx++
		} else {
			da.Value = formatValue(values[plainIdx])
			plainIdx++
		}
		out.Args = append(out.Args, da)
	}
	return out, true, nil
}

// arguments returns the inputs with indexed flags inferred from the topic
// count when the declaration does not mark them.
func (e Event) arguments(indexedCount int) abi.Arguments {
	if e.ExplicitIndexed {
		return e.Inputs
	}
	out := make(abi.Arguments, len(e.Inputs))
	copy(out, e.Inputs)
	for i := range out {
		out[i].Indexed = i < indexedCount
	}
	return out
}

// topicValue decodes static indexed values; dynamic ones are only present as their hash.
func topicValue(arg abi.Argument, topic common.Hash) string {
	switch arg.Type.T {
	case abi.StringTy, abi.BytesTy, abi.SliceTy, abi.ArrayTy, abi.TupleTy:
		return topic.Hex()
	}
	values, err := abi.Arguments{{Type: arg.Type}}.Unpack(topic.Bytes())
	if err != nil || len(values) != 1 {
		return topic.Hex()
	}
	return formatValue(values[0])
}

func formatValue(v interface{}) string {
	switch typed := v.(type) {
	case *big.Int:
		return typed.String()
	case common.Address:
		return typed.Hex()
	case common.Hash:
		return typed.Hex()
	case []byte:
		return hexutil.Encode(typed)
	case string:
		return typed
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		buf := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(buf), rv)
		return "0x" + hex.EncodeToString(buf)
	}
	return fmt.Sprint(v)
}
