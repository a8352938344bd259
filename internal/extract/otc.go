package extract

import "txScope/internal/model"

// OTCAmount returns the asking price of an OTC creation or the payment of an
// OTC completion. Other tags yield nil.
func (e *Extractor) OTCAmount(tx model.Transaction, tag model.EventTag) *model.Amount {
	switch {
	case tag.IsOTCCreate():
		return guard(e, "otc", func() *model.Amount { return e.otcAsk(tx) })
	case tag.IsOTCComplete():
		return guard(e, "otc", func() *model.Amount { return e.otcPayment(tx) })
	}
	return nil
}

func (e *Extractor) otcAsk(tx model.Transaction) *model.Amount {
	for _, msg := range tx.Messages {
		switch call := msg.Call.(type) {
		case model.CreateTrade:
			if amt := e.tradeAsk(call); amt != nil {
				return amt
			}
		case model.ExecuteContract:
			if call.Trade != nil {
				if amt := e.tradeAsk(*call.Trade); amt != nil {
					return amt
				}
			}
		}
	}
	return nil
}

// tradeAsk prefers sale_price and falls back to the first asked token. CW20
// asks are formatted with the token contract as the denomination.
func (e *Extractor) tradeAsk(trade model.CreateTrade) *model.Amount {
	if p := trade.SalePrice; p != nil && p.Amount != "" && p.Denom != "" {
		if amt := e.format(p.Amount, p.Denom); amt != nil {
			return amt
		}
	}
	if len(trade.AskTokens) == 0 {
		return nil
	}
	first := trade.AskTokens[0]
	switch {
	case first.Native != nil:
		return e.format(first.Native.Amount, first.Native.Denom)
	case first.CW20 != nil:
		return e.format(first.CW20.Amount, first.CW20.Address)
	}
	return nil
}

func (e *Extractor) otcPayment(tx model.Transaction) *model.Amount {
	for _, msg := range tx.Messages {
		call, ok := msg.Call.(model.ExecuteContract)
		if !ok {
			continue
		}
		funds := call.Funds
		if len(funds) == 0 {
			funds = msg.Funds
		}
		if len(funds) > 0 && funds[0].Amount != "" && funds[0].Denom != "" {
			if amt := e.format(funds[0].Amount, funds[0].Denom); amt != nil {
				return amt
			}
		}
	}
	if amt := e.paymentFromEvents(tx.LogEvents()); amt != nil {
		return amt
	}
	return e.paymentFromEvents(tx.Events)
}
