package receipt

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

const (
	receiptFields = 4
	logFields     = 3
	// typed receipts carry a single type byte below the RLP list range.
	maxTypeByte = 0x7f
)

// item is one RLP value with absolute positions.
type item struct {
	kind    rlp.Kind
	start   int
	content int
	end     int
	data    []byte
}

// listReader walks the items of a list payload while tracking where each one starts.
type listReader struct {
	buf []byte
	pos int
}

func (r *listReader) done() bool {
	return len(r.buf) == 0
}

func (r *listReader) next() (item, error) {
	kind, content, rest, err := rlp.Split(r.buf)
	if err != nil {
		return item{}, err
	}
	end := r.pos + len(r.buf) - len(rest)
	it := item{
		kind:    kind,
		start:   r.pos,
		content: end - len(content),
		end:     end,
		data:    content,
	}
	r.buf = rest
	r.pos = end
	return it, nil
}

func (it item) list() *listReader {
	return &listReader{buf: it.data, pos: it.content}
}

// Decode decodes a raw receipt as stored on the ledger. Both typed (EIP-2718)
// and untyped receipts are accepted.
func Decode(raw []byte) (*Decoded, error) {
	if len(raw) == 0 {
		return nil, malformed("empty receipt")
	}

	out := &Decoded{}
	top := &listReader{buf: raw}
	if raw[0] <= maxTypeByte {
		out.Type = raw[0]
		top = &listReader{buf: raw[1:], pos: 1}
	}

	body, err := top.next()
	if err != nil {
		return nil, malformedErr("receipt body", err)
	}
	if body.kind != rlp.List {
		return nil, malformed("receipt body is not a list")
	}
	if !top.done() {
		return nil, malformed("%d trailing bytes after receipt", len(top.buf))
	}

	fields := body.list()
	if n, err := rlp.CountValues(body.data); err != nil {
		return nil, malformedErr("receipt fields", err)
	} else if n != receiptFields {
		return nil, malformed("receipt has %d fields, want %d", n, receiptFields)
	}

	status, err := fields.next()
	if err != nil {
		return nil, malformedErr("status", err)
	}
	if err := decodeStatus(status, out); err != nil {
		return nil, err
	}

	gas, err := fields.next()
	if err != nil {
		return nil, malformedErr("cumulative gas", err)
	}
	out.CumulativeGasUsed, err = decodeUint(gas)
	if err != nil {
		return nil, err
	}

	bloom, err := fields.next()
	if err != nil {
		return nil, malformedErr("bloom", err)
	}
	if bloom.kind != rlp.String || len(bloom.data) != types.BloomByteLength {
		return nil, malformed("bloom length %d", len(bloom.data))
	}
	out.Bloom = types.BytesToBloom(bloom.data)

	logs, err := fields.next()
	if err != nil {
		return nil, malformedErr("logs", err)
	}
	if logs.kind != rlp.List {
		return nil, malformed("logs is not a list")
	}

	reader := logs.list()
	for !reader.done() {
		entry, err := reader.next()
		if err != nil {
			return nil, malformedErr("log", err)
		}
		log, err := decodeLog(entry)
		if err != nil {
			return nil, err
		}
		out.Logs = append(out.Logs, log)
	}

	return out, nil
}

// DecodeAt decodes a raw receipt and tags failures with its transaction index.
func DecodeAt(txIndex int, raw []byte) (*Decoded, error) {
	decoded, err := Decode(raw)
	if err != nil {
		return nil, &MalformedReceiptError{TxIndex: txIndex, Err: err}
	}
	return decoded, nil
}

func decodeStatus(it item, out *Decoded) error {
	switch {
	case it.kind == rlp.List:
		return malformed("status is a list")
	case len(it.data) == 0:
		out.Status = false
	case len(it.data) == 1 && it.data[0] == 1:
		out.Status = true
	case len(it.data) == common.HashLength:
		out.PostState = common.CopyBytes(it.data)
	default:
		return malformed("invalid status %x", it.data)
	}
	return nil
}

func decodeUint(it item) (uint64, error) {
	if it.kind == rlp.List {
		return 0, malformed("integer is a list")
	}
	if len(it.data) > 8 {
		return 0, malformed("integer of %d bytes overflows uint64", len(it.data))
	}
	if len(it.data) > 0 && it.data[0] == 0 {
		return 0, malformed("integer has leading zero bytes")
	}
	var v uint64
	for _, b := range it.data {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

func decodeLog(entry item) (Log, error) {
	if entry.kind != rlp.List {
		return Log{}, malformed("log at %d is not a list", entry.start)
	}
	if n, err := rlp.CountValues(entry.data); err != nil {
		return Log{}, malformedErr("log fields", err)
	} else if n != logFields {
		return Log{}, malformed("log has %d fields, want %d", n, logFields)
	}

	fields := entry.list()
	log := Log{Span: LogSpan{Start: entry.start, End: entry.end}}

	addr, err := fields.next()
	if err != nil {
		return Log{}, malformedErr("log address", err)
	}
	if addr.kind != rlp.String || len(addr.data) != common.AddressLength {
		return Log{}, malformed("log address length %d", len(addr.data))
	}
	log.Address = common.BytesToAddress(addr.data)
	log.Span.Address = addr.content

	topics, err := fields.next()
	if err != nil {
		return Log{}, malformedErr("log topics", err)
	}
	if topics.kind != rlp.List {
		return Log{}, malformed("log topics is not a list")
	}
	topicReader := topics.list()
	for !topicReader.done() {
		topic, err := topicReader.next()
		if err != nil {
			return Log{}, malformedErr("topic", err)
		}
		if topic.kind != rlp.String || len(topic.data) != common.HashLength {
			return Log{}, malformed("topic length %d", len(topic.data))
		}
		log.Topics = append(log.Topics, common.BytesToHash(topic.data))
		log.Span.Topics = append(log.Span.Topics, topic.content)
	}

	data, err := fields.next()
	if err != nil {
		return Log{}, malformedErr("log data", err)
	}
	if data.kind == rlp.List {
		return Log{}, malformed("log data is a list")
	}
	log.Data = common.CopyBytes(data.data)
	if log.Data == nil {
		log.Data = []byte{}
	}
	log.Span.Data = data.start
	log.Span.DataContent = data.content

	return log, nil
}
