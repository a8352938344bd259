package classify

import (
	"strings"

	"txScope/internal/model"
)

// Facts indexes the parts of a transaction the rules look at. Tokens are the
// lowercased JSON keys and string values found in messages, decoded payloads,
// the fee and every event. The memo is free text and only feeds the tool
// signature flags.
type Facts struct {
	Tx      model.Transaction
	Memo    string
	tokens  map[string]struct{}
	actions map[string]struct{}

	BoostMemo     bool
	NFTSwitchMemo bool
	BBLMemo       bool

	DaoDao     bool
	Enterprise bool
	BBL        bool
	Boost      bool
	NFTSwitch  bool

	// genericTag is the tag implied by the first wasm action carrying a
	// stake, unstake or claim keyword.
	genericTag model.EventTag
}

func newFacts(tx model.Transaction, roles model.ContractRoles, memos model.MemoSignatures) *Facts {
	f := &Facts{
		Tx:      tx,
		Memo:    strings.ToLower(tx.Memo),
		tokens:  make(map[string]struct{}),
		actions: make(map[string]struct{}),
	}
	for _, msg := range tx.Messages {
		f.add(msg.TypeURL, msg.Sender, msg.Contract)
		f.walk(msg.Fields)
		f.walk(msg.Body)
		switch call := msg.Call.(type) {
		case model.SendNFT:
			f.walk(call.Inner)
		case model.ExecuteContract:
			f.walk(call.Inner)
		}
		for _, coin := range msg.Funds {
			f.add(coin.Denom)
		}
	}
	for _, coin := range tx.Fee.Amount {
		f.add(coin.Denom)
	}
	for _, ev := range tx.AllEvents() {
		f.add(ev.Type)
		for _, attr := range ev.Attributes {
			f.add(attr.Key, attr.Value)
			if attr.Key == "action" && isWasm(ev.Type) {
				f.actions[strings.ToLower(attr.Value)] = struct{}{}
			}
		}
	}

	f.BoostMemo = memoMatches(f.Memo, memos.Boost)
	f.NFTSwitchMemo = memoMatches(f.Memo, memos.NFTSwitch)
	f.BBLMemo = memoMatches(f.Memo, memos.BBL)

	f.DaoDao = f.Involves(roles.DaoDaoStaking)
	f.Enterprise = f.Involves(roles.EnterpriseTool)
	f.BBL = f.Involves(roles.BBLMarketplace) || f.BBLMemo
	f.Boost = f.Involves(roles.BoostProtocol) || f.BoostMemo || f.Contains("launch-nft")
	f.NFTSwitch = f.Involves(roles.NFTSwitch) || f.Involves(roles.OTCContract) || f.NFTSwitchMemo
	f.genericTag = genericActionTag(tx)
	return f
}

func (f *Facts) add(values ...string) {
	for _, v := range values {
		if v == "" {
			continue
		}
		f.tokens[strings.ToLower(v)] = struct{}{}
	}
}

func (f *Facts) walk(node interface{}) {
	switch typed := node.(type) {
	case map[string]interface{}:
		for k, v := range typed {
			f.add(k)
			f.walk(v)
		}
	case []interface{}:
		for _, v := range typed {
			f.walk(v)
		}
	case string:
		f.add(typed)
	}
}

// Has reports an exact token: a method name, JSON key, event type or string value.
func (f *Facts) Has(token string) bool {
	_, ok := f.tokens[strings.ToLower(token)]
	return ok
}

// Contains reports a token containing the substring.
func (f *Facts) Contains(sub string) bool {
	sub = strings.ToLower(sub)
	if sub == "" {
		return false
	}
	if _, ok := f.tokens[sub]; ok {
		return true
	}
	for token := range f.tokens {
		if strings.Contains(token, sub) {
			return true
		}
	}
	return false
}

// Action reports an exact wasm action value.
func (f *Facts) Action(action string) bool {
	_, ok := f.actions[strings.ToLower(action)]
	return ok
}

// Involves reports whether the address appears anywhere in the transaction.
func (f *Facts) Involves(addr string) bool {
	if addr == "" {
		return false
	}
	return f.Contains(addr)
}

func (f *Facts) MessageCount() int { return len(f.Tx.Messages) }

// FirstTransferRecipient is the recipient of the first message when it is a transfer_nft.
func (f *Facts) FirstTransferRecipient() string {
	if len(f.Tx.Messages) == 0 {
		return ""
	}
	if t, ok := f.Tx.Messages[0].Call.(model.TransferNFT); ok {
		return t.Recipient
	}
	return ""
}

// UniformTransferBatch reports whether every message is a transfer_nft to the same recipient.
func (f *Facts) UniformTransferBatch() bool {
	recipients := make(map[string]struct{})
	for _, msg := range f.Tx.Messages {
		t, ok := msg.Call.(model.TransferNFT)
		if !ok {
			return false
		}
		if t.Recipient != "" {
			recipients[t.Recipient] = struct{}{}
		}
	}
	return len(recipients) == 1
}

func (f *Facts) KnownFamily() bool {
	return f.DaoDao || f.Enterprise || f.BBL || f.Boost || f.NFTSwitch
}

func (f *Facts) ToolMemo() bool { return f.BoostMemo || f.NFTSwitchMemo }

func memoMatches(memo string, signatures []string) bool {
	for _, sig := range signatures {
		if sig != "" && strings.Contains(memo, strings.ToLower(sig)) {
			return true
		}
	}
	return false
}

func isWasm(eventType string) bool {
	return eventType == "wasm" || strings.HasPrefix(eventType, "wasm-")
}

// genericActionTag scans top-level then per-log wasm actions in order.
func genericActionTag(tx model.Transaction) model.EventTag {
	events := append(append([]model.Event(nil), tx.Events...), tx.LogEvents()...)
	for _, ev := range events {
		if !isWasm(ev.Type) {
			continue
		}
		for _, attr := range ev.Attributes {
			if attr.Key != "action" {
				continue
			}
			action := strings.ToLower(attr.Value)
			switch {
			case strings.Contains(action, "stake") && !strings.Contains(action, "unstake"):
				return model.TagGenericStake
			case strings.Contains(action, "unstake") || strings.Contains(action, "claim_nft"):
				return model.TagGenericUnstake
			case strings.Contains(action, "claim"):
				return model.TagRewardClaim
			}
		}
	}
	return ""
}
