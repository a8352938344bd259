package model

// TransactionRecord is the persisted interchange shape of a NormalizedTransaction.
type TransactionRecord struct {
	BlockHeight uint64        `json:"block_height"`
	Timestamp   string        `json:"timestamp"`
	TxHash      string        `json:"tx_hash"`
	EventType   EventTag      `json:"event_type"`
	NFT         NFTRecord     `json:"nft"`
	Seller      PartyRecord   `json:"seller"`
	Buyer       PartyRecord   `json:"buyer"`
	Price       PriceRecord   `json:"price"`
	Fees        FeesRecord    `json:"fees"`
	Rewards     RewardsRecord `json:"rewards"`
}

type NFTRecord struct {
	TokenIDs []string `json:"token_ids"`
	Count    int      `json:"count"`
}

type PartyRecord struct {
	Exists  bool    `json:"exists"`
	Address *string `json:"address"`
}

// PriceRecord carries the display amount. Extracted keeps the generic price
// when it differs from the display amount, so reloads stay lossless.
type PriceRecord struct {
	Exists    bool    `json:"exists"`
	Formatted *string `json:"formatted"`
	RawAmount *string `json:"raw_amount"`
	Denom     *string `json:"denom"`
	Extracted *string `json:"extracted,omitempty"`
}

type FeesRecord struct {
	Exists    bool    `json:"exists"`
	Formatted *string `json:"formatted"`
}

// RewardsRecord is either the full breakdown or {exists:false, formatted:null}.
type RewardsRecord struct {
	Exists           bool             `json:"exists"`
	Type             *string          `json:"type,omitempty"`
	AmpLunaTotal     *string          `json:"ampLunaTotal,omitempty"`
	AmpLunaUser      *string          `json:"ampLunaUser,omitempty"`
	AmpLunaTreasury  *string          `json:"ampLunaTreasury,omitempty"`
	TotalLuna        *string          `json:"totalLuna,omitempty"`
	ValidatorCount   *int             `json:"validatorCount,omitempty"`
	ValidatorClaims  []ValidatorClaim `json:"validatorClaims,omitempty"`
	StakingValidator *string          `json:"stakingValidator,omitempty"`
	Recipient        *string          `json:"recipient,omitempty"`
	TreasuryAddress  *string          `json:"treasuryAddress,omitempty"`
	Formatted        *string          `json:"formatted"`
}

// ToRecord converts a normalized transaction to its persisted shape.
// Buyer carries counterparty A and seller carries counterparty B.
func ToRecord(n NormalizedTransaction) TransactionRecord {
	tokenIDs := n.TokenIDs
	if tokenIDs == nil {
		tokenIDs = []string{}
	}

	rec := TransactionRecord{
		BlockHeight: n.Height,
		Timestamp:   n.Timestamp,
		TxHash:      n.Hash,
		EventType:   n.EventTag,
		NFT:         NFTRecord{TokenIDs: tokenIDs, Count: len(tokenIDs)},
		Seller:      partyRecord(n.CounterpartyB),
		Buyer:       partyRecord(n.CounterpartyA),
		Fees:        FeesRecord{Exists: n.Fees != nil, Formatted: n.Fees},
	}

	if n.DisplayAmount != nil {
		rec.Price = PriceRecord{
			Exists:    true,
			Formatted: strPtr(n.DisplayAmount.Formatted),
			RawAmount: optional(n.DisplayAmount.Raw),
			Denom:     optional(n.DisplayAmount.Denom),
		}
	}
	if n.Price != nil && (n.DisplayAmount == nil || *n.Price != *n.DisplayAmount) {
		rec.Price.Extracted = strPtr(n.Price.Formatted)
	}

	if n.Rewards != nil {
		r := n.Rewards
		count := r.ValidatorCount()
		rec.Rewards = RewardsRecord{
			Exists:           true,
			Type:             strPtr(r.Kind),
			AmpLunaTotal:     optional(r.MintedLiquidToken),
			AmpLunaUser:      optional(r.UserPortion),
			AmpLunaTreasury:  optional(r.TreasuryPortion),
			TotalLuna:        optional(r.TotalLunaClaimed),
			ValidatorCount:   &count,
			ValidatorClaims:  r.ValidatorClaims,
			StakingValidator: optional(r.StakingValidator),
			Recipient:        optional(r.Recipient),
			TreasuryAddress:  optional(r.TreasuryAddress),
			Formatted:        strPtr(r.Formatted),
		}
	}

	return rec
}

// FromRecord rebuilds the normalized fields from a persisted record.
func FromRecord(rec TransactionRecord) NormalizedTransaction {
	n := NormalizedTransaction{
		Hash:          rec.TxHash,
		Height:        rec.BlockHeight,
		Timestamp:     rec.Timestamp,
		EventTag:      rec.EventType,
		CounterpartyA: partyAddress(rec.Buyer),
		CounterpartyB: partyAddress(rec.Seller),
		TokenIDs:      append([]string(nil), rec.NFT.TokenIDs...),
	}
	if rec.Fees.Exists && rec.Fees.Formatted != nil {
		fees := *rec.Fees.Formatted
		n.Fees = &fees
	}

	if rec.Price.Exists && rec.Price.Formatted != nil {
		display := Amount{
			Formatted: *rec.Price.Formatted,
			Raw:       deref(rec.Price.RawAmount),
			Denom:     deref(rec.Price.Denom),
		}
		n.DisplayAmount = &display
		if rec.Price.Extracted == nil {
			price := display
			n.Price = &price
		}
	}
	if rec.Price.Extracted != nil {
		n.Price = &Amount{Formatted: *rec.Price.Extracted}
	}

	if rec.Rewards.Exists {
		r := rec.Rewards
		n.Rewards = &RewardBreakdown{
			Kind:              deref(r.Type),
			TotalLunaClaimed:  deref(r.TotalLuna),
			ValidatorClaims:   r.ValidatorClaims,
			MintedLiquidToken: deref(r.AmpLunaTotal),
			UserPortion:       deref(r.AmpLunaUser),
			TreasuryPortion:   deref(r.AmpLunaTreasury),
			TreasuryAddress:   deref(r.TreasuryAddress),
			StakingValidator:  deref(r.StakingValidator),
			Recipient:         deref(r.Recipient),
			Formatted:         deref(r.Formatted),
		}
	}

	return n
}

func partyRecord(addr *string) PartyRecord {
	if addr == nil || *addr == "" {
		return PartyRecord{}
	}
	return PartyRecord{Exists: true, Address: strPtr(*addr)}
}

func partyAddress(p PartyRecord) *string {
	if !p.Exists || p.Address == nil {
		return nil
	}
	return strPtr(*p.Address)
}

func strPtr(s string) *string { return &s }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
