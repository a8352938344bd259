package extract

import (
	"strings"

	"txScope/internal/model"
)

// Fees renders "P: <protocol> | R: <royalty> | G: <gas>" with absent parts omitted.
// Marketplace fee attributes come from log wasm events, falling back to top-level ones.
func (e *Extractor) Fees(tx model.Transaction) *string {
	return guard(e, "fees", func() *string {
		protocol, royalty := feeAttributes(tx.LogEvents())
		if protocol == "" && royalty == "" {
			protocol, royalty = feeAttributes(tx.Events)
		}

		parts := make([]string, 0, 3)
		if protocol != "" {
			parts = append(parts, "P: "+protocol)
		}
		if royalty != "" {
			parts = append(parts, "R: "+royalty)
		}
		if len(tx.Fee.Amount) > 0 {
			gas := tx.Fee.Amount[0]
			if amt := e.format(gas.Amount, gas.Denom); amt != nil {
				parts = append(parts, "G: "+amt.Formatted)
			}
		}
		if len(parts) == 0 {
			return nil
		}
		joined := strings.Join(parts, " | ")
		return &joined
	})
}

func feeAttributes(events []model.Event) (protocol, royalty string) {
	for _, ev := range events {
		if !isWasm(ev.Type) {
			continue
		}
		for _, attr := range ev.Attributes {
			if attr.Value == "" {
				continue
			}
			switch attr.Key {
			case "protocol_fee", "marketplace_fee":
				protocol = attr.Value
			case "royalty_fee", "royalty":
				royalty = attr.Value
			}
		}
	}
	return protocol, royalty
}
