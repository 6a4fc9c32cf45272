package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestEventRecordJSONRoundTrip(t *testing.T) {
	original := EventRecord{
		TxIndex:  7,
		LogIndex: 1,
		Address:  "0x1111111111111111111111111111111111111111",
		Topics:   []string{"0xaaa", "0xbbb"},
		Data:     "0xdeadbeef",
		Offsets:  []uint64{0, 312, 336, 0, 0, 0, 369},
		Decoded: &DecodedEvent{
			Name:      "Sync",
			Signature: "Sync(uint112,uint112)",
			Args:      []DecodedArg{{Name: "reserve0", Type: "uint112", Value: "340282366920938463463374607431768211455"}},
		},
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded EventRecord
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}

func TestInputRecordJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(InputRecord{BlockNumber: 1, Events: []EventRecord{{TxIndex: 2}}})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"block_number", "public_input", "private_input", "format_version", "events"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("missing key %s", key)
		}
	}
	events, _ := decoded["events"].([]interface{})
	if len(events) != 1 {
		t.Fatalf("events mismatch: %v", decoded["events"])
	}
	if _, ok := events[0].(map[string]interface{})["decoded"]; ok {
		t.Fatalf("decoded should be omitted when nil")
	}
}
