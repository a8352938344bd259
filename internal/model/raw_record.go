package model

import (
	"encoding/json"
)

const (
	SourceLCD = "lcd"
	SourceRPC = "rpc"
)

// RawRecord is one fetched ledger payload, stored verbatim for later classification.
type RawRecord struct {
	Source    string          `json:"source"`
	Hash      string          `json:"hash"`
	Height    uint64          `json:"height"`
	Timestamp string          `json:"timestamp,omitempty"`
	FetchedAt string          `json:"fetched_at"`
	Payload   json.RawMessage `json:"payload"`
}

// MarshalJSON keeps an empty payload encoded as null rather than failing.
func (r RawRecord) MarshalJSON() ([]byte, error) {
	type Alias RawRecord
	a := Alias(r)
	if len(a.Payload) == 0 {
		a.Payload = json.RawMessage("null")
	}
	return json.Marshal(a)
}
