package model

import (
	"encoding/json"
)

// EventRecord is a matched event of an input record with its position in the stream.
type EventRecord struct {
	TxIndex  uint64        `json:"tx_index"`
	LogIndex uint64        `json:"log_index"`
	Address  string        `json:"address"`
	Topics   []string      `json:"topics"`
	Data     string        `json:"data"`
	Offsets  []uint64      `json:"offsets"`
	Decoded  *DecodedEvent `json:"decoded,omitempty"`
}

// MarshalJSON ensures EventRecord is encoded with stable field names.
func (er EventRecord) MarshalJSON() ([]byte, error) {
	type Alias EventRecord
	return json.Marshal(Alias(er))
}

// UnmarshalJSON decodes an EventRecord from JSON.
func (er *EventRecord) UnmarshalJSON(data []byte) error {
	type Alias EventRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*er = EventRecord(a)
	return nil
}
