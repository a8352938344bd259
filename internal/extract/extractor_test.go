package extract

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txScope/internal/amount"
	"txScope/internal/ledger"
	"txScope/internal/model"
)

const (
	sellerAddr = "terra1pppppppppppppppppppppppppppppppprw4cpq"
	buyerAddr  = "terra1zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzs4y3dw"
)

var roles = model.DefaultContractRoles()

func newTestExtractor() *Extractor {
	return New(roles, amount.NewFormatter(amount.DefaultAliases(roles), "terra"), "terra")
}

type fixture struct {
	code     int
	memo     string
	messages []string
	logs     []string
	events   []string
	fee      string
}

func (f fixture) decode(t *testing.T) model.Transaction {
	t.Helper()
	fee := `{"amount":[],"gas_limit":"0"}`
	if f.fee != "" {
		fee = fmt.Sprintf(`{"amount":[%s],"gas_limit":"300000"}`, f.fee)
	}
	payload := fmt.Sprintf(`{"txhash":"H","height":"10","code":%d,"timestamp":"2024-03-01T00:00:00Z",
	  "tx":{"body":{"messages":[%s],"memo":%q},"auth_info":{"fee":%s}},
	  "logs":[{"msg_index":0,"events":[%s]}],"events":[%s]}`,
		f.code, strings.Join(f.messages, ","), f.memo, fee, strings.Join(f.logs, ","), strings.Join(f.events, ","))
	tx, err := ledger.Decode([]byte(payload))
	require.NoError(t, err)
	return tx
}

func event(typ string, attrs ...string) string {
	parts := make([]string, 0, len(attrs)/2)
	for i := 0; i+1 < len(attrs); i += 2 {
		parts = append(parts, fmt.Sprintf(`{"key":%q,"value":%q}`, attrs[i], attrs[i+1]))
	}
	return fmt.Sprintf(`{"type":%q,"attributes":[%s]}`, typ, strings.Join(parts, ","))
}

func execMsg(sender, contract, msg, funds string) string {
	return fmt.Sprintf(`{"@type":"/cosmwasm.wasm.v1.MsgExecuteContract","sender":%q,"contract":%q,"msg":%s,"funds":[%s]}`,
		sender, contract, msg, funds)
}

func TestSettlePrice(t *testing.T) {
	e := newTestExtractor()

	tx := fixture{
		messages: []string{execMsg(buyerAddr, roles.BBLMarketplace, `{"settle":{"auction_id":"7"}}`, "")},
		events:   []string{event("wasm", "action", "settle", "amount", "249000000", "denom", "uluna")},
	}.decode(t)
	price := e.Price(tx, model.TagBBLSale)
	require.NotNil(t, price)
	assert.Equal(t, "249.000000 LUNA", price.Formatted)
	assert.Equal(t, "249000000", price.Raw)

	bare := fixture{events: []string{event("wasm", "action", "settle", "amount", "249000000")}}.decode(t)
	price = e.Price(bare, model.TagBBLSale)
	require.NotNil(t, price)
	assert.Equal(t, "249.00 TOKEN", price.Formatted)
}

func TestPaymentNoiseThreshold(t *testing.T) {
	e := newTestExtractor()

	dust := fixture{logs: []string{event("coin_spent", "spender", buyerAddr, "amount", "50000uluna")}}.decode(t)
	assert.Nil(t, e.Price(dust, model.TagBoostSale))

	paid := fixture{logs: []string{
		event("coin_spent", "spender", buyerAddr, "amount", "50000uluna"),
		event("transfer", "recipient", sellerAddr, "amount", "5000000uluna"),
	}}.decode(t)
	price := e.Price(paid, model.TagBoostSale)
	require.NotNil(t, price)
	assert.Equal(t, "5.000000 LUNA", price.Formatted)
}

func TestAuctionHookPriceAndTokens(t *testing.T) {
	e := newTestExtractor()
	hook := base64.StdEncoding.EncodeToString([]byte(`{"create_auction":{"token_id":"42","reserve_price":"100000000","denom":"uluna"}}`))
	tx := fixture{
		messages: []string{execMsg(sellerAddr, roles.NFT,
			fmt.Sprintf(`{"send_nft":{"contract":%q,"token_id":"42","msg":%q}}`, roles.BBLMarketplace, hook), "")},
		logs: []string{event("wasm", "action", "send_nft", "token_id", "42"), event("wasm", "token_id", "43"), event("wasm", "token_id", "not-a-number")},
	}.decode(t)

	price := e.Price(tx, model.TagBBLListing)
	require.NotNil(t, price)
	assert.Equal(t, "100.000000 LUNA", price.Formatted)
	assert.Equal(t, []string{"42", "43"}, e.TokenIDs(tx))
}

func TestMessagePriceObject(t *testing.T) {
	e := newTestExtractor()
	tx := fixture{messages: []string{execMsg(sellerAddr, roles.BoostProtocol,
		`{"setup":{"token_id":"9","price":{"amount":"12000000","denom":"uluna"}}}`, "")}}.decode(t)
	price := e.Price(tx, model.TagBoostListing)
	require.NotNil(t, price)
	assert.Equal(t, "12.000000 LUNA", price.Formatted)
}

func TestLogWasmPrice(t *testing.T) {
	e := newTestExtractor()
	tx := fixture{logs: []string{event("wasm", "action", "buy", "price", "3000000", "denom", "uluna")}}.decode(t)
	price := e.Price(tx, model.TagNFTSwitchSale)
	require.NotNil(t, price)
	assert.Equal(t, "3.000000 LUNA", price.Formatted)
}

func TestCancelHasNoPrice(t *testing.T) {
	e := newTestExtractor()
	tx := fixture{
		logs:   []string{event("transfer", "recipient", sellerAddr, "amount", "5000000uluna")},
		events: []string{event("wasm", "action", "settle", "amount", "249000000", "denom", "uluna")},
	}.decode(t)
	assert.Nil(t, e.Price(tx, model.TagBBLDelist))
	assert.Nil(t, e.Price(tx, model.TagBoostCancel))
	assert.Nil(t, e.Price(tx, model.TagNFTSwitchOTCCreate))
}

func rewardLogs(collected string) []string {
	return []string{
		event("withdraw_rewards", "validator", "terravaloper1a", "amount", "1500000uluna"),
		event("withdraw_rewards", "validator", "terravaloper1b", "amount", "2500000uluna"),
		event("delegate", "validator", "terravaloper1stake", "amount", "4000000uluna"),
		event("wasm", "action", "mint", "to", "terra1claimer", "amount", "3900000"),
		event("wasm", "action", "update_rewards_callback", "rewards_collected", collected, "treasury_amount", "390000"),
		event("wasm", "action", "transfer", "from", "terra1claimer", "to", roles.DaoTreasury, "amount", "390000"),
	}
}

func TestRewardsBreakdown(t *testing.T) {
	e := newTestExtractor()
	logs := rewardLogs("3510000")
	// Newer nodes repeat log events at top level with a msg_index attribute.
	events := []string{
		event("withdraw_rewards", "validator", "terravaloper1a", "amount", "1500000uluna", "msg_index", "0"),
		event("withdraw_rewards", "validator", "terravaloper1b", "amount", "2500000uluna", "msg_index", "0"),
	}
	tx := fixture{logs: logs, events: events}.decode(t)

	r := e.Rewards(tx)
	require.NotNil(t, r)
	assert.Equal(t, model.RewardKindDetailed, r.Kind)
	require.Len(t, r.ValidatorClaims, 2)
	assert.Equal(t, model.ValidatorClaim{Validator: "terravaloper1a", Amount: "1.500000", AmountRaw: "1500000"}, r.ValidatorClaims[0])
	assert.Equal(t, "2.500000", r.ValidatorClaims[1].Amount)
	assert.Equal(t, "4.000000", r.TotalLunaClaimed)
	assert.Equal(t, "terravaloper1stake", r.StakingValidator)
	assert.Equal(t, "3.900000", r.MintedLiquidToken)
	assert.Equal(t, "3.510000", r.UserPortion)
	assert.Equal(t, "0.390000", r.TreasuryPortion)
	assert.Equal(t, roles.DaoTreasury, r.TreasuryAddress)
	assert.Equal(t, "terra1claimer", r.Recipient)
	assert.Equal(t, "3.510000 ampLUNA", r.Formatted)
	assert.True(t, r.HasSplit())
}

func TestRewardsSplitReconciles(t *testing.T) {
	e := newTestExtractor()
	// rewards_collected reported before the treasury take.
	tx := fixture{logs: rewardLogs("3900000")}.decode(t)
	r := e.Rewards(tx)
	require.NotNil(t, r)
	assert.Equal(t, "3.510000", r.UserPortion)
	assert.Equal(t, r.MintedLiquidToken, amount.SumMicro(r.UserPortion, r.TreasuryPortion))
}

func TestRewardsDegradedAndAbsent(t *testing.T) {
	e := newTestExtractor()

	mintOnly := fixture{logs: []string{event("wasm", "action", "mint", "to", "terra1claimer", "amount", "2000000")}}.decode(t)
	r := e.Rewards(mintOnly)
	require.NotNil(t, r)
	assert.Empty(t, r.ValidatorClaims)
	assert.Equal(t, "0.000000", r.TotalLunaClaimed)
	assert.Equal(t, "2.000000 ampLUNA", r.Formatted)
	assert.False(t, r.HasSplit())

	noMint := fixture{logs: []string{event("withdraw_rewards", "validator", "terravaloper1a", "amount", "1500000uluna")}}.decode(t)
	assert.Nil(t, e.Rewards(noMint))
}

func TestRewardsTotalFallsBackToWithdrawals(t *testing.T) {
	e := newTestExtractor()
	tx := fixture{logs: []string{
		event("withdraw_rewards", "validator", "terravaloper1a", "amount", "1500000uluna"),
		event("withdraw_rewards", "validator", "terravaloper1b", "amount", "2500000uluna"),
		event("wasm", "action", "mint", "amount", "3900000"),
	}}.decode(t)
	r := e.Rewards(tx)
	require.NotNil(t, r)
	assert.Equal(t, "4.000000", r.TotalLunaClaimed)
}

func TestSenderUnknown(t *testing.T) {
	e := newTestExtractor()
	assert.Equal(t, UnknownSender, e.Sender(fixture{}.decode(t)))

	tx := fixture{messages: []string{execMsg(sellerAddr, roles.NFT, `{"noop":{}}`, "")}}.decode(t)
	assert.Equal(t, sellerAddr, e.Sender(tx))
}

func TestOTCAmounts(t *testing.T) {
	e := newTestExtractor()

	cw20 := fixture{messages: []string{execMsg(sellerAddr, roles.OTCContract,
		fmt.Sprintf(`{"create_trade":{"ask_tokens":[{"cw20":{"address":%q,"amount":"5000000"}}]}}`, buyerAddr), "")}}.decode(t)
	ask := e.OTCAmount(cw20, model.TagNFTSwitchOTCCreate)
	require.NotNil(t, ask)
	assert.Equal(t, "5.000000 TOKEN", ask.Formatted)

	sale := fixture{messages: []string{execMsg(sellerAddr, roles.OTCContract,
		`{"create_trade":{"sale_price":{"amount":"50000000","denom":"uluna"},"ask_tokens":[{"native":{"amount":"1","denom":"uluna"}}]}}`, "")}}.decode(t)
	ask = e.OTCAmount(sale, model.TagNFTSwitchOTCCreate)
	require.NotNil(t, ask)
	assert.Equal(t, "50.000000 LUNA", ask.Formatted)

	wrapped := fixture{messages: []string{execMsg(buyerAddr, roles.NFTSwitch,
		fmt.Sprintf(`{"execute_contract":{"contract":%q,"msg":"{\"execute_trade\":{\"trade_id\":3}}","funds":[{"denom":"uluna","amount":"7000000"}]}}`, roles.OTCContract), "")}}.decode(t)
	paid := e.OTCAmount(wrapped, model.TagNFTSwitchOTCComplete)
	require.NotNil(t, paid)
	assert.Equal(t, "7.000000 LUNA", paid.Formatted)

	direct := fixture{
		messages: []string{execMsg(buyerAddr, roles.OTCContract, `{"execute_trade":{"trade_id":3}}`, `{"denom":"uluna","amount":"20000000"}`)},
		events:   []string{event("coin_spent", "spender", buyerAddr, "amount", "20000000uluna")},
	}.decode(t)
	paid = e.OTCAmount(direct, model.TagNFTSwitchOTCComplete)
	require.NotNil(t, paid)
	assert.Equal(t, "20.000000 LUNA", paid.Formatted)

	assert.Nil(t, e.OTCAmount(direct, model.TagBBLSale))
}

func TestFees(t *testing.T) {
	e := newTestExtractor()
	tx := fixture{
		logs: []string{event("wasm", "action", "settle", "protocol_fee", "5000000", "royalty_fee", "2500000")},
		fee:  `{"denom":"uluna","amount":"45000"}`,
	}.decode(t)
	fees := e.Fees(tx)
	require.NotNil(t, fees)
	assert.Equal(t, "P: 5000000 | R: 2500000 | G: 45000.000000 LUNA", *fees)

	gasOnly := fixture{fee: `{"denom":"uluna","amount":"3000000"}`}.decode(t)
	fees = e.Fees(gasOnly)
	require.NotNil(t, fees)
	assert.Equal(t, "G: 3.000000 LUNA", *fees)

	assert.Nil(t, e.Fees(fixture{}.decode(t)))
}

func TestRecipient(t *testing.T) {
	e := newTestExtractor()

	fromLog := fixture{logs: []string{event("wasm", "action", "transfer_nft", "recipient", buyerAddr, "token_id", "1")}}.decode(t)
	assert.Equal(t, buyerAddr, e.Recipient(fromLog))

	fromBuyer := fixture{logs: []string{event("wasm", "action", "settle", "buyer", buyerAddr)}}.decode(t)
	assert.Equal(t, buyerAddr, e.Recipient(fromBuyer))

	fromMsg := fixture{messages: []string{execMsg(sellerAddr, roles.NFT,
		fmt.Sprintf(`{"transfer_nft":{"recipient":%q,"token_id":"1"}}`, buyerAddr), "")}}.decode(t)
	assert.Equal(t, buyerAddr, e.Recipient(fromMsg))

	assert.Equal(t, "", e.Recipient(fixture{}.decode(t)))
}

func TestSellerSkipsCollectors(t *testing.T) {
	e := newTestExtractor()
	tx := fixture{logs: []string{
		event("transfer", "recipient", roles.BBLMarketplace, "amount", "249000000uluna"),
		event("transfer", "recipient", "terra1notvalid", "amount", "1000000uluna"),
		event("transfer", "recipient", sellerAddr, "amount", "240000000uluna"),
	}}.decode(t)
	assert.Equal(t, sellerAddr, e.Seller(tx))

	settle := fixture{events: []string{event("wasm", "action", "settle", "seller", sellerAddr)}}.decode(t)
	assert.Equal(t, sellerAddr, e.Seller(settle))

	assert.Equal(t, "", e.Seller(fixture{}.decode(t)))
}

func TestValidAddress(t *testing.T) {
	e := newTestExtractor()
	assert.True(t, e.ValidAddress(sellerAddr))
	assert.True(t, e.ValidAddress(roles.DaoTreasury))
	assert.False(t, e.ValidAddress("terra1notvalid"))
	assert.False(t, e.ValidAddress("cosmos1pppppppppppppppppppppppppppppppprw4cpq"))
}

func TestGuardRecovers(t *testing.T) {
	e := newTestExtractor()
	var failed []string
	e.OnFailure(func(field string, _ interface{}) { failed = append(failed, field) })

	got := guard(e, "price", func() *model.Amount { panic("boom") })
	assert.Nil(t, got)
	assert.Equal(t, []string{"price"}, failed)
}

func TestRewardsRecipientPrefersMint(t *testing.T) {
	e := newTestExtractor()

	// The treasury transfer comes last and carries a different to.
	withMintTo := fixture{logs: []string{
		event("wasm", "action", "mint", "to", "terra1claimer", "amount", "3900000"),
		event("wasm", "action", "transfer", "from", "terra1claimer", "to", roles.DaoTreasury, "amount", "390000"),
	}}.decode(t)
	r := e.Rewards(withMintTo)
	require.NotNil(t, r)
	assert.Equal(t, "terra1claimer", r.Recipient)

	// Without a mint recipient the last wasm to is used.
	withoutMintTo := fixture{logs: []string{
		event("wasm", "action", "mint", "amount", "3900000"),
		event("wasm", "action", "send", "to", "terra1relay"),
		event("wasm", "action", "transfer", "to", "terra1final", "amount", "390000"),
	}}.decode(t)
	r = e.Rewards(withoutMintTo)
	require.NotNil(t, r)
	assert.Equal(t, "terra1final", r.Recipient)
}
