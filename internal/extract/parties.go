package extract

import "txScope/internal/model"

// Recipient returns the NFT receiver, or "" when none is found.
func (e *Extractor) Recipient(tx model.Transaction) string {
	return guard(e, "recipient", func() string {
		for _, ev := range tx.LogEvents() {
			if !isWasm(ev.Type) {
				continue
			}
			if isNFTMove(ev) {
				if to, ok := ev.AttrAny("recipient", "to"); ok && to != "" {
					return to
				}
			}
			if buyer, ok := ev.Attr("buyer"); ok && buyer != "" {
				return buyer
			}
		}

		for _, ev := range tx.Events {
			if !isWasm(ev.Type) || !isNFTMove(ev) {
				continue
			}
			if to, ok := ev.AttrAny("recipient", "to"); ok && to != "" {
				return to
			}
		}

		for _, msg := range tx.Messages {
			switch call := msg.Call.(type) {
			case model.TransferNFT:
				if call.Recipient != "" {
					return call.Recipient
				}
			case model.SendNFT:
				if call.Recipient != "" {
					return call.Recipient
				}
			}
			if r := msg.BodyString("recipient"); r != "" {
				return r
			}
		}
		return ""
	})
}

// Seller returns the party paid in a sale. Payments to marketplaces and fee
// collectors are skipped.
func (e *Extractor) Seller(tx model.Transaction) string {
	return guard(e, "seller", func() string {
		for _, ev := range tx.LogEvents() {
			switch {
			case ev.Type == "transfer":
				r, ok := ev.Attr("recipient")
				if ok && r != "" && !e.roles.IsMarketplaceOrCollector(r) && e.ValidAddress(r) {
					return r
				}
			case isWasm(ev.Type):
				if s, ok := ev.AttrAny("seller", "owner"); ok && s != "" {
					return s
				}
			}
		}

		for _, ev := range tx.Events {
			if !isWasm(ev.Type) {
				continue
			}
			if action, _ := ev.Attr("action"); action != "settle" {
				continue
			}
			if s, ok := ev.Attr("seller"); ok && s != "" {
				return s
			}
		}
		return ""
	})
}

func isNFTMove(ev model.Event) bool {
	action, _ := ev.Attr("action")
	return action == "transfer_nft" || action == "send_nft"
}
