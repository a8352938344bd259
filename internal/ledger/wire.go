package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"txScope/internal/model"
)

// flexUint accepts both quoted and bare integers, as LCD and RPC disagree.
// Anything that is not an unsigned integer decodes as 0.
type flexUint uint64

func (f *flexUint) UnmarshalJSON(data []byte) error {
	*f = 0
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		*f = flexUint(v)
	}
	return nil
}

// flexString accepts strings and renders other scalars as their JSON text.
// Objects and arrays keep their raw JSON; null is empty.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		*f = flexString(data)
	}
	return nil
}

// looseList decodes a JSON array of objects, skipping elements that are not
// objects. A value that is not an array decodes as an empty list.
type looseList[T any] []T

func (l *looseList[T]) UnmarshalJSON(data []byte) error {
	*l = nil
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if !isObject(item) {
			continue
		}
		var v T
		if err := unmarshalLoose(item, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

// unmarshalLoose decodes data into v, leaving mis-typed fields at their zero
// value. Only malformed JSON is reported.
func unmarshalLoose(data []byte, v interface{}) error {
	err := json.Unmarshal(data, v)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return nil
	}
	return err
}

type wireAttribute struct {
	Key   flexString `json:"key"`
	Value flexString `json:"value"`
}

type wireEvent struct {
	Type       flexString               `json:"type"`
	Attributes looseList[wireAttribute] `json:"attributes"`
}

type wireLog struct {
	MsgIndex flexUint             `json:"msg_index"`
	Events   looseList[wireEvent] `json:"events"`
}

type wireCoin struct {
	Denom  flexString `json:"denom"`
	Amount flexString `json:"amount"`
}

type wireFee struct {
	Amount   looseList[wireCoin] `json:"amount"`
	GasLimit flexString          `json:"gas_limit"`
	Payer    string              `json:"payer"`
	Granter  string              `json:"granter"`
}

type wireTx struct {
	Body struct {
		Messages looseList[map[string]interface{}] `json:"messages"`
		Memo     flexString                         `json:"memo"`
	} `json:"body"`
	AuthInfo struct {
		Fee wireFee `json:"fee"`
	} `json:"auth_info"`
}

func convertEvents(in []wireEvent) []model.Event {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.Event, 0, len(in))
	for _, ev := range in {
		attrs := make([]model.Attribute, 0, len(ev.Attributes))
		for _, attr := range ev.Attributes {
			attrs = append(attrs, model.Attribute{Key: string(attr.Key), Value: string(attr.Value)})
		}
		out = append(out, model.Event{Type: string(ev.Type), Attributes: attrs})
	}
	return out
}

func convertLogs(in []wireLog) []model.Log {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.Log, 0, len(in))
	for _, log := range in {
		out = append(out, model.Log{MsgIndex: int(log.MsgIndex), Events: convertEvents(log.Events)})
	}
	return out
}

func convertCoins(in []wireCoin) []model.Coin {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.Coin, 0, len(in))
	for _, c := range in {
		out = append(out, model.Coin{Denom: string(c.Denom), Amount: string(c.Amount)})
	}
	return out
}

// applyTx copies the body and auth envelope of a decoded tx into the transaction.
func applyTx(tx *model.Transaction, wt wireTx) {
	tx.Memo = string(wt.Body.Memo)
	tx.Fee = model.Fee{
		Amount:   convertCoins(wt.AuthInfo.Fee.Amount),
		GasLimit: string(wt.AuthInfo.Fee.GasLimit),
		Payer:    wt.AuthInfo.Fee.Payer,
		Granter:  wt.AuthInfo.Fee.Granter,
	}
	tx.Messages = make([]model.Message, 0, len(wt.Body.Messages))
	for _, raw := range wt.Body.Messages {
		tx.Messages = append(tx.Messages, decodeMessage(raw))
	}
}

// parseLogString decodes the legacy JSON log string of a tx result.
// Plain-text logs (failed transactions) yield nothing.
func parseLogString(raw string) []model.Log {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "[") {
		return nil
	}
	var logs looseList[wireLog]
	if err := json.Unmarshal([]byte(raw), &logs); err != nil {
		return nil
	}
	return convertLogs(logs)
}
