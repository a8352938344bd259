package extract

import "txScope/internal/model"

// Sender returns the first message's sender, or UnknownSender.
func (e *Extractor) Sender(tx model.Transaction) string {
	return guard(e, "sender", func() string {
		if s := tx.FirstSender(); s != "" {
			return s
		}
		return UnknownSender
	})
}

// TokenIDs collects token ids in discovery order: message fields, the decoded
// auction hook, then numeric token_id attributes of log and top-level events.
func (e *Extractor) TokenIDs(tx model.Transaction) []string {
	return guard(e, "token_ids", func() []string {
		seen := make(map[string]struct{})
		out := []string{}
		add := func(id string) {
			if id == "" {
				return
			}
			if _, ok := seen[id]; ok {
				return
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}

		for _, msg := range tx.Messages {
			switch call := msg.Call.(type) {
			case model.SendNFT:
				add(call.TokenID)
				if call.Auction != nil {
					add(call.Auction.TokenID)
				}
			case model.TransferNFT:
				add(call.TokenID)
			}
		}

		for _, ev := range tx.AllEvents() {
			for _, attr := range ev.Attributes {
				if attr.Key == "token_id" && numericPattern.MatchString(attr.Value) {
					add(attr.Value)
				}
			}
		}
		return out
	})
}
