// Package ledger adapts Terra LCD and CometBFT tx_search payloads into one
// canonical transaction model.
package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"

	"txScope/internal/model"
)

// Shape identifies the payload variant of a fetched transaction.
type Shape int

const (
	ShapeLCD Shape = iota
	ShapeLCDEnvelope
	ShapeSearch
)

func (s Shape) String() string {
	switch s {
	case ShapeLCDEnvelope:
		return "lcd_envelope"
	case ShapeSearch:
		return "search"
	default:
		return "lcd"
	}
}

// Detect inspects the top-level keys of a payload.
func Detect(payload []byte) (Shape, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(payload, &keys); err != nil {
		return ShapeLCD, fmt.Errorf("parse payload: %w", err)
	}
	if _, ok := keys["tx_result"]; ok {
		return ShapeSearch, nil
	}
	if _, ok := keys["tx_response"]; ok {
		return ShapeLCDEnvelope, nil
	}
	return ShapeLCD, nil
}

// Decode converts a raw payload into a Transaction. Only invalid JSON or a
// payload that is not an object is an error; missing or mis-typed structure
// leaves the corresponding fields empty.
func Decode(payload []byte) (model.Transaction, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return model.Transaction{}, fmt.Errorf("empty payload")
	}
	shape, err := Detect(payload)
	if err != nil {
		return model.Transaction{}, err
	}
	switch shape {
	case ShapeSearch:
		return DecodeSearch(payload)
	case ShapeLCDEnvelope:
		return DecodeEnvelope(payload)
	default:
		return DecodeLCD(payload)
	}
}

// DecodeRecord decodes a stored RawRecord, filling hash, height and timestamp
// from the record when the payload does not carry them.
func DecodeRecord(rec model.RawRecord) (model.Transaction, error) {
	tx, err := Decode(rec.Payload)
	if err != nil {
		return tx, err
	}
	if tx.Hash == "" {
		tx.Hash = rec.Hash
	}
	if tx.Height == 0 {
		tx.Height = rec.Height
	}
	if tx.Timestamp == "" {
		tx.Timestamp = rec.Timestamp
	}
	return tx, nil
}

type lcdResponse struct {
	Height    flexUint             `json:"height"`
	TxHash    flexString           `json:"txhash"`
	Code      flexUint             `json:"code"`
	Timestamp flexString           `json:"timestamp"`
	RawLog    flexString           `json:"raw_log"`
	Tx        json.RawMessage      `json:"tx"`
	Logs      looseList[wireLog]   `json:"logs"`
	Events    looseList[wireEvent] `json:"events"`
}

// DecodeLCD decodes a bare LCD tx_response object.
func DecodeLCD(payload []byte) (model.Transaction, error) {
	var resp lcdResponse
	if err := unmarshalLoose(payload, &resp); err != nil {
		return model.Transaction{}, fmt.Errorf("decode lcd tx: %w", err)
	}
	return fromLCD(resp, nil), nil
}

// DecodeEnvelope decodes the {tx, tx_response} shape returned by the LCD
// single-transaction endpoint.
func DecodeEnvelope(payload []byte) (model.Transaction, error) {
	var env struct {
		Tx         json.RawMessage `json:"tx"`
		TxResponse lcdResponse     `json:"tx_response"`
	}
	if err := unmarshalLoose(payload, &env); err != nil {
		return model.Transaction{}, fmt.Errorf("decode lcd envelope: %w", err)
	}
	return fromLCD(env.TxResponse, env.Tx), nil
}

func fromLCD(resp lcdResponse, outerTx json.RawMessage) model.Transaction {
	tx := model.Transaction{
		Hash:      string(resp.TxHash),
		Height:    uint64(resp.Height),
		Timestamp: string(resp.Timestamp),
		Code:      uint32(resp.Code),
		Logs:      convertLogs(resp.Logs),
		Events:    convertEvents(resp.Events),
	}
	if len(tx.Logs) == 0 {
		tx.Logs = parseLogString(string(resp.RawLog))
	}

	body := resp.Tx
	if !isObject(body) {
		body = outerTx
	}
	if wt, ok := parseWireTx(body); ok {
		applyTx(&tx, wt)
	}
	return tx
}

type searchResult struct {
	Hash     flexString      `json:"hash"`
	Height   flexUint        `json:"height"`
	Tx       json.RawMessage `json:"tx"`
	TxResult struct {
		Code   flexUint             `json:"code"`
		Log    flexString           `json:"log"`
		Events looseList[wireEvent] `json:"events"`
	} `json:"tx_result"`
	Timestamp flexString `json:"timestamp"`
}

// DecodeSearch decodes a tx_search result item. The tx field is usually a
// protobuf blob, in which case the transaction has no decoded messages.
func DecodeSearch(payload []byte) (model.Transaction, error) {
	var res searchResult
	if err := unmarshalLoose(payload, &res); err != nil {
		return model.Transaction{}, fmt.Errorf("decode search tx: %w", err)
	}

	events := []wireEvent(res.TxResult.Events)
	if needsAttributeDecoding(events) {
		events = decodeAttributes(events)
	}

	tx := model.Transaction{
		Hash:      string(res.Hash),
		Height:    uint64(res.Height),
		Timestamp: string(res.Timestamp),
		Code:      uint32(res.TxResult.Code),
		Logs:      parseLogString(string(res.TxResult.Log)),
		Events:    convertEvents(events),
	}
	if wt, ok := parseWireTx(res.Tx); ok {
		applyTx(&tx, wt)
	}
	return tx, nil
}

func parseWireTx(raw json.RawMessage) (wireTx, bool) {
	if !isObject(raw) {
		return wireTx{}, false
	}
	var wt wireTx
	if err := unmarshalLoose(raw, &wt); err != nil {
		return wireTx{}, false
	}
	return wt, true
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
