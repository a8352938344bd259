package ledger

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"txScope/internal/model"
)

func decodeMessage(raw map[string]interface{}) model.Message {
	msg := model.Message{
		TypeURL:  stringField(raw, "@type"),
		Sender:   stringField(raw, "sender"),
		Contract: stringField(raw, "contract"),
		Funds:    coinList(raw["funds"]),
		Fields:   raw,
	}
	msg.Body = decodePayload(raw["msg"])
	msg.Call = decodeCall(msg.Body)
	return msg
}

// decodeCall maps a msg payload onto its typed call variant.
func decodeCall(body map[string]interface{}) model.Call {
	method := methodName(body)
	if method == "" {
		return nil
	}
	args, _ := body[method].(map[string]interface{})

	switch method {
	case "send_nft":
		call := model.SendNFT{
			Contract:  stringField(args, "contract"),
			Recipient: stringField(args, "recipient"),
			TokenID:   stringField(args, "token_id"),
			Payload:   stringField(args, "msg"),
		}
		call.Inner = decodePayload(args["msg"])
		call.Auction = decodeAuction(call.Inner)
		return call
	case "transfer_nft":
		return model.TransferNFT{
			Recipient: stringField(args, "recipient"),
			TokenID:   stringField(args, "token_id"),
		}
	case "create_trade":
		return decodeTrade(args)
	case "execute_contract":
		call := model.ExecuteContract{
			Contract: stringField(args, "contract"),
			Funds:    coinList(args["funds"]),
		}
		call.Inner = decodePayload(args["msg"])
		if methodName(call.Inner) == "create_trade" {
			inner, _ := call.Inner["create_trade"].(map[string]interface{})
			trade := decodeTrade(inner)
			call.Trade = &trade
		}
		return call
	default:
		return model.GenericCall{Name: method}
	}
}

// methodName is the single top-level key of a cosmwasm execute payload. Payloads
// with several keys use the first in sorted order for determinism.
func methodName(body map[string]interface{}) string {
	if len(body) == 0 {
		return ""
	}
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0]
}

func decodeAuction(inner map[string]interface{}) *model.CreateAuction {
	args, ok := inner["create_auction"].(map[string]interface{})
	if !ok {
		return nil
	}
	auction := &model.CreateAuction{
		TokenID:      stringField(args, "token_id"),
		ReservePrice: stringField(args, "reserve_price"),
		Reserve:      stringField(args, "reserve"),
		Denom:        stringField(args, "denom"),
	}
	if start, ok := args["start_price"].(map[string]interface{}); ok {
		auction.StartPrice = &model.Coin{Denom: stringField(start, "denom"), Amount: stringField(start, "amount")}
	}
	return auction
}

func decodeTrade(args map[string]interface{}) model.CreateTrade {
	var trade model.CreateTrade
	if price, ok := args["sale_price"].(map[string]interface{}); ok {
		trade.SalePrice = &model.Coin{Denom: stringField(price, "denom"), Amount: stringField(price, "amount")}
	}
	asks, _ := args["ask_tokens"].([]interface{})
	for _, item := range asks {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		var ask model.AskToken
		if native, ok := entry["native"].(map[string]interface{}); ok {
			ask.Native = &model.Coin{Denom: stringField(native, "denom"), Amount: stringField(native, "amount")}
		}
		if cw20, ok := entry["cw20"].(map[string]interface{}); ok {
			ask.CW20 = &model.CW20Amount{Address: stringField(cw20, "address"), Amount: stringField(cw20, "amount")}
		}
		trade.AskTokens = append(trade.AskTokens, ask)
	}
	return trade
}

// decodePayload accepts a JSON object, a JSON string, or base64-encoded JSON.
// Anything else decodes to nil.
func decodePayload(v interface{}) map[string]interface{} {
	switch typed := v.(type) {
	case map[string]interface{}:
		return typed
	case string:
		s := strings.TrimSpace(typed)
		if s == "" {
			return nil
		}
		if strings.HasPrefix(s, "{") {
			return parseObject([]byte(s))
		}
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil
		}
		return parseObject(data)
	default:
		return nil
	}
}

func parseObject(data []byte) map[string]interface{} {
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func coinList(v interface{}) []model.Coin {
	items, _ := v.([]interface{})
	if len(items) == 0 {
		return nil
	}
	out := make([]model.Coin, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, model.Coin{Denom: stringField(entry, "denom"), Amount: stringField(entry, "amount")})
	}
	return out
}

// stringField reads a scalar field as a string; numbers are rendered without exponent.
func stringField(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
