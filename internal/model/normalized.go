package model

// Amount is a raw base-unit amount with its denomination and display string.
type Amount struct {
	Raw       string `json:"raw"`
	Denom     string `json:"denom"`
	Formatted string `json:"formatted"`
}

const RewardKindDetailed = "detailed"

// ValidatorClaim is one validator reward withdrawal.
type ValidatorClaim struct {
	Validator string `json:"validator"`
	Amount    string `json:"amount"`
	AmountRaw string `json:"amountRaw"`
}

// RewardBreakdown reconstructs an alliance reward claim. Amounts are 6-decimal
// strings in whole tokens; empty means the value was not emitted.
type RewardBreakdown struct {
	Kind              string           `json:"type"`
	TotalLunaClaimed  string           `json:"totalLuna"`
	ValidatorClaims   []ValidatorClaim `json:"validatorClaims,omitempty"`
	MintedLiquidToken string           `json:"ampLunaTotal"`
	UserPortion       string           `json:"ampLunaUser,omitempty"`
	TreasuryPortion   string           `json:"ampLunaTreasury,omitempty"`
	TreasuryAddress   string           `json:"treasuryAddress,omitempty"`
	StakingValidator  string           `json:"stakingValidator,omitempty"`
	Recipient         string           `json:"recipient,omitempty"`
	Formatted         string           `json:"formatted"`
}

// HasSplit reports whether both sides of the user/treasury split are present.
func (r RewardBreakdown) HasSplit() bool {
	return r.UserPortion != "" && r.TreasuryPortion != ""
}

func (r RewardBreakdown) ValidatorCount() int { return len(r.ValidatorClaims) }

// NormalizedTransaction is the classified, field-extracted view of one transaction.
type NormalizedTransaction struct {
	Hash          string           `json:"hash"`
	Height        uint64           `json:"height"`
	Timestamp     string           `json:"timestamp"`
	EventTag      EventTag         `json:"event_tag"`
	CounterpartyA *string          `json:"counterparty_a"`
	CounterpartyB *string          `json:"counterparty_b"`
	TokenIDs      []string         `json:"token_ids"`
	Price         *Amount          `json:"price"`
	Rewards       *RewardBreakdown `json:"rewards"`
	Fees          *string          `json:"fees"`
	DisplayAmount *Amount          `json:"display_amount"`
}

// NFTCount returns the token count, or false for claims which are not counted in NFTs.
func (n NormalizedTransaction) NFTCount() (int, bool) {
	if n.EventTag.IsClaim() {
		return 0, false
	}
	return len(n.TokenIDs), true
}

// ClassifyError records a payload the classify command could not decode.
type ClassifyError struct {
	TxHash string `json:"tx_hash"`
	Height uint64 `json:"height"`
	Source string `json:"source"`
	Line   int    `json:"line"`
	Error  string `json:"error"`
}
