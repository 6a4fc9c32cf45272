package model

// DecodedEvent is a matched log rendered through its event declaration.
type DecodedEvent struct {
	Name      string       `json:"name"`
	Signature string       `json:"signature"`
	Args      []DecodedArg `json:"args"`
}

// DecodedArg is one event parameter. Values are strings so big integers survive JSON.
type DecodedArg struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Indexed bool   `json:"indexed"`
	Value   string `json:"value"`
}
