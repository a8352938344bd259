package extract

import (
	"sort"

	"txScope/internal/amount"
	"txScope/internal/model"
)

// Price finds the trade amount. Cancellations and OTC creations never carry one.
// Sources are tried in order: the auction hook, a price object inside a message,
// log coin movements, log wasm price attributes, then a settle event.
func (e *Extractor) Price(tx model.Transaction, tag model.EventTag) *model.Amount {
	if tag.IsCancel() || tag.IsOTCCreate() {
		return nil
	}
	return guard(e, "price", func() *model.Amount {
		if amt := e.auctionPrice(tx); amt != nil {
			return amt
		}
		if amt := e.messagePrice(tx); amt != nil {
			return amt
		}

		logs := tx.LogEvents()
		if amt := e.paymentFromEvents(logs); amt != nil {
			return amt
		}
		if amt := e.wasmPrice(logs); amt != nil {
			return amt
		}
		return e.settlePrice(tx.Events)
	})
}

func (e *Extractor) auctionPrice(tx model.Transaction) *model.Amount {
	for _, msg := range tx.Messages {
		send, ok := msg.Call.(model.SendNFT)
		if !ok || send.Auction == nil {
			continue
		}
		a := send.Auction
		if a.ReservePrice != "" && a.Denom != "" {
			if amt := e.format(a.ReservePrice, a.Denom); amt != nil {
				return amt
			}
		}
		if a.Reserve != "" && a.Denom != "" {
			if amt := e.format(a.Reserve, a.Denom); amt != nil {
				return amt
			}
		}
		if a.StartPrice != nil {
			if amt := e.format(a.StartPrice.Amount, a.StartPrice.Denom); amt != nil {
				return amt
			}
		}
	}
	return nil
}

func (e *Extractor) messagePrice(tx model.Transaction) *model.Amount {
	for _, msg := range tx.Messages {
		roots := []map[string]interface{}{msg.Body}
		switch call := msg.Call.(type) {
		case model.SendNFT:
			roots = append(roots, call.Inner)
		case model.ExecuteContract:
			roots = append(roots, call.Inner)
		}
		for _, root := range roots {
			if coin, ok := findPriceObject(root); ok {
				if amt := e.format(coin.Amount, coin.Denom); amt != nil {
					return amt
				}
			}
		}
	}
	return nil
}

// findPriceObject walks v in sorted key order for {"price":{"amount":"<digits>","denom":"..."}}.
func findPriceObject(v interface{}) (model.Coin, bool) {
	switch node := v.(type) {
	case map[string]interface{}:
		if p, ok := node["price"].(map[string]interface{}); ok {
			raw, _ := p["amount"].(string)
			denom, _ := p["denom"].(string)
			if numericPattern.MatchString(raw) && denom != "" {
				return model.Coin{Denom: denom, Amount: raw}, true
			}
		}
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if coin, ok := findPriceObject(node[k]); ok {
				return coin, true
			}
		}
	case []interface{}:
		for _, item := range node {
			if coin, ok := findPriceObject(item); ok {
				return coin, true
			}
		}
	}
	return model.Coin{}, false
}

func (e *Extractor) wasmPrice(events []model.Event) *model.Amount {
	for _, ev := range events {
		if !isWasm(ev.Type) {
			continue
		}
		denom, ok := ev.Attr("denom")
		if !ok || denom == "" {
			continue
		}
		for _, attr := range ev.Attributes {
			switch attr.Key {
			case "price", "sale_price", "amount":
			default:
				continue
			}
			if m := leadingDigits(attr.Value); m != "" {
				if amt := e.format(m, denom); amt != nil {
					return amt
				}
			}
		}
	}
	return nil
}

// settlePrice reads the marketplace settle event. Without a denomination the
// amount is shown in generic token units.
func (e *Extractor) settlePrice(events []model.Event) *model.Amount {
	for _, ev := range events {
		if !isWasm(ev.Type) {
			continue
		}
		if action, _ := ev.Attr("action"); action != "settle" {
			continue
		}
		raw, ok := ev.Attr("amount")
		if !ok || raw == "" {
			continue
		}
		if denom, ok := ev.Attr("denom"); ok && denom != "" {
			if amt := e.format(raw, denom); amt != nil {
				return amt
			}
			continue
		}
		if formatted, ok := amount.FormatTokenUnits(raw); ok {
			return &model.Amount{Raw: raw, Formatted: formatted}
		}
	}
	return nil
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}
