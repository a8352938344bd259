package classify

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txScope/internal/ledger"
	"txScope/internal/model"
)

var roles = model.DefaultContractRoles()

func newTestClassifier() *Classifier {
	return New(roles, model.DefaultMemoSignatures())
}

func decode(t *testing.T, payload string) model.Transaction {
	t.Helper()
	tx, err := ledger.Decode([]byte(payload))
	require.NoError(t, err)
	return tx
}

func lcdTx(code int, memo, messages, logs, events string) string {
	return fmt.Sprintf(`{"txhash":"T","height":"1","code":%d,"timestamp":"2024-03-01T00:00:00Z",
	  "tx":{"body":{"messages":[%s],"memo":%q}},"logs":[{"msg_index":0,"events":[%s]}],"events":[%s]}`,
		code, messages, memo, logs, events)
}

func wasm(attrs ...string) string {
	out := `{"type":"wasm","attributes":[`
	for i := 0; i+1 < len(attrs); i += 2 {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"key":%q,"value":%q}`, attrs[i], attrs[i+1])
	}
	return out + "]}"
}

func execMsg(sender, contract, msg string) string {
	return fmt.Sprintf(`{"@type":"/cosmwasm.wasm.v1.MsgExecuteContract","sender":%q,"contract":%q,"msg":%s,"funds":[]}`,
		sender, contract, msg)
}

func TestBBLCancelBeatsSettle(t *testing.T) {
	tx := decode(t, lcdTx(0, "",
		execMsg("terra1owner", roles.BBLMarketplace, `{"cancel_auction":{"auction_id":"17"}}`),
		wasm("_contract_address", roles.BBLMarketplace, "action", "settle_hook", "auction_id", "17"),
		wasm("action", "settle", "amount", "249000000", "denom", "uluna")))

	tag, rule := newTestClassifier().Explain(tx)
	assert.Equal(t, model.TagBBLDelist, tag)
	assert.Equal(t, "bbl-delist", rule)
}

func TestBBLSaleAndListing(t *testing.T) {
	c := newTestClassifier()

	sale := decode(t, lcdTx(0, "",
		execMsg("terra1bidder", roles.BBLMarketplace, `{"settle":{"auction_id":"17"}}`),
		wasm("_contract_address", roles.BBLMarketplace, "action", "settle"), ""))
	assert.Equal(t, model.TagBBLSale, c.Classify(sale))

	hook := base64.StdEncoding.EncodeToString([]byte(`{"create_auction":{"token_id":"42","reserve_price":"100000000","denom":"uluna"}}`))
	listing := decode(t, lcdTx(0, "",
		execMsg("terra1owner", roles.NFT, fmt.Sprintf(`{"send_nft":{"contract":%q,"token_id":"42","msg":%q}}`, roles.BBLMarketplace, hook)),
		wasm("action", "send_nft", "token_id", "42"), ""))
	assert.Equal(t, model.TagBBLListing, c.Classify(listing))
}

func TestBoostStakeViaDaoDao(t *testing.T) {
	c := newTestClassifier()
	msg := execMsg("terra1staker", roles.NFT,
		fmt.Sprintf(`{"send_nft":{"contract":%q,"token_id":"5","msg":"eyJzdGFrZSI6e319"}}`, roles.DaoDaoStaking))

	boosted := decode(t, lcdTx(0, "staked via boostdao.io", msg, wasm("action", "send_nft"), ""))
	assert.Equal(t, model.TagBoostStakeDaoDao, c.Classify(boosted))

	plain := decode(t, lcdTx(0, "", msg, wasm("action", "send_nft"), ""))
	assert.Equal(t, model.TagDaoDaoStake, c.Classify(plain))
}

func TestAllianceClaim(t *testing.T) {
	c := newTestClassifier()
	msg := execMsg("terra1claimant", roles.NFT, `{"claim_rewards":{}}`)

	ok := decode(t, lcdTx(0, "", msg, wasm("action", "claim_rewards"), ""))
	assert.Equal(t, model.TagAllianceClaim, c.Classify(ok))

	failed := decode(t, lcdTx(5, "", msg, "", ""))
	assert.Equal(t, model.TagAllyRewardsClaimFailed, c.Classify(failed))
}

func TestEnterpriseHasNoStakeBranch(t *testing.T) {
	c := newTestClassifier()
	claim := decode(t, lcdTx(0, "", execMsg("terra1u", roles.EnterpriseTool, `{"claim":{}}`), "", ""))
	assert.Equal(t, model.TagEnterpriseClaimNFTs, c.Classify(claim))

	recovery := decode(t, lcdTx(0, "boostdao.io", execMsg("terra1u", roles.EnterpriseTool, `{"claim":{}}`), "", ""))
	assert.Equal(t, model.TagEnterpriseUnstakeBoost, c.Classify(recovery))

	unstake := decode(t, lcdTx(0, "", execMsg("terra1u", roles.EnterpriseTool, `{"unstake":{"nft_ids":["1"]}}`), "", ""))
	assert.Equal(t, model.TagEnterpriseUnstake, c.Classify(unstake))

	stake := decode(t, lcdTx(0, "", execMsg("terra1u", roles.EnterpriseTool, `{"stake":{}}`), "", ""))
	assert.NotContains(t, string(c.Classify(stake)), "ENTERPRISE")
}

func TestTransfers(t *testing.T) {
	c := newTestClassifier()

	p2p := decode(t, lcdTx(0, "", execMsg("terra1alice", roles.NFT, `{"transfer_nft":{"recipient":"terra1bob","token_id":"3"}}`), "", ""))
	assert.Equal(t, model.TagP2PTransfer, c.Classify(p2p))

	toolMemo := decode(t, lcdTx(0, "sent with nftswitch", execMsg("terra1alice", roles.NFT, `{"transfer_nft":{"recipient":"terra1bob","token_id":"3"}}`), "", ""))
	assert.NotEqual(t, model.TagP2PTransfer, c.Classify(toolMemo))

	boost := decode(t, lcdTx(0, "boostdao.io", execMsg("terra1alice", roles.NFT, `{"transfer_nft":{"recipient":"terra1bob","token_id":"3"}}`), "", ""))
	assert.Equal(t, model.TagBoostTransfer, c.Classify(boost))

	batch := decode(t, lcdTx(0, "nftswitch batch",
		execMsg("terra1alice", roles.NFT, `{"transfer_nft":{"recipient":"terra1bob","token_id":"3"}}`)+","+
			execMsg("terra1alice", roles.NFT, `{"transfer_nft":{"recipient":"terra1bob","token_id":"4"}}`), "", ""))
	assert.Equal(t, model.TagNFTSwitchBatchTransfer, c.Classify(batch))
}

func TestNFTSwitchOTC(t *testing.T) {
	c := newTestClassifier()
	create := decode(t, lcdTx(0, "", execMsg("terra1maker", roles.OTCContract,
		`{"create_trade":{"sale_price":{"amount":"50000000","denom":"uluna"}}}`), "", ""))
	assert.Equal(t, model.TagNFTSwitchOTCCreate, c.Classify(create))

	complete := decode(t, lcdTx(0, "", execMsg("terra1taker", roles.OTCContract, `{"execute_trade":{"trade_id":1}}`), "", ""))
	assert.Equal(t, model.TagNFTSwitchOTCComplete, c.Classify(complete))
}

func TestGenericFallbacks(t *testing.T) {
	c := newTestClassifier()
	cases := map[string]model.EventTag{
		"stake_nft":     model.TagGenericStake,
		"unstake_nft":   model.TagGenericUnstake,
		"claim_nfts":    model.TagGenericUnstake,
		"claim_airdrop": model.TagRewardClaim,
		"mint":          model.TagUnknown,
	}
	for action, want := range cases {
		tx := decode(t, lcdTx(0, "", execMsg("terra1u", "terra1othercontract", `{"noop":{}}`), "", wasm("action", action)))
		assert.Equal(t, want, c.Classify(tx), action)
	}
}

func TestDeterministicAndTotal(t *testing.T) {
	c := newTestClassifier()
	payloads := []string{
		`{}`,
		`{"txhash":"X","tx":{"body":{}}}`,
		`{"tx_result":{"code":1,"events":[{"type":"wasm"}]}}`,
		lcdTx(0, "necropolis", execMsg("terra1u", roles.BBLMarketplace, `{"place_bid":{}}`), "", ""),
		lcdTx(0, "", `{"msg":"not-a-payload"}`, wasm("action"), ""),
	}
	for _, p := range payloads {
		tx := decode(t, p)
		first := c.Classify(tx)
		assert.True(t, first.Valid(), p)
		assert.Equal(t, first, c.Classify(tx), p)
	}
	assert.Equal(t, model.TagUnknown, c.Classify(model.Transaction{}))
}

func TestRecoversFromRulePanics(t *testing.T) {
	c := newTestClassifier()
	c.rules = append([]Rule{{Name: "boom", Tag: model.TagNFTBreak, Match: func(*Facts) bool { panic("boom") }}}, c.rules...)
	tag, rule := c.Explain(model.Transaction{})
	assert.Equal(t, model.TagErrorClassifying, tag)
	assert.Equal(t, "recovered", rule)
}

func TestRuleOrder(t *testing.T) {
	index := map[string]int{}
	for i, r := range newTestClassifier().Rules() {
		index[r.Name] = i
		assert.True(t, r.Tag.Valid(), r.Name)
	}
	assert.Less(t, index["bbl-delist"], index["bbl-sale"])
	assert.Less(t, index["boost-stake-daodao"], index["daodao-stake"])
	assert.Less(t, index["alliance-claim-failed"], index["alliance-claim"])
	assert.Less(t, index["nftswitch-otc-complete"], index["p2p-transfer"])
}

func TestEveryRule(t *testing.T) {
	transfer := func(recipient, id string) string {
		return execMsg("terra1alice", roles.NFT, fmt.Sprintf(`{"transfer_nft":{"recipient":%q,"token_id":%q}}`, recipient, id))
	}
	hook := base64.StdEncoding.EncodeToString([]byte(`{"create_auction":{"token_id":"42","reserve_price":"100000000","denom":"uluna"}}`))
	daoSend := execMsg("terra1staker", roles.NFT,
		fmt.Sprintf(`{"send_nft":{"contract":%q,"token_id":"5","msg":"eyJzdGFrZSI6e319"}}`, roles.DaoDaoStaking))

	tests := []struct {
		rule    string
		tag     model.EventTag
		payload string
	}{
		{"alliance-claim-failed", model.TagAllyRewardsClaimFailed,
			lcdTx(5, "", execMsg("terra1u", roles.NFT, `{"claim_rewards":{}}`), "", "")},
		{"alliance-claim", model.TagAllianceClaim,
			lcdTx(0, "", execMsg("terra1u", roles.NFT, `{"claim_rewards":{}}`), wasm("action", "claim_rewards"), "")},
		{"nft-break", model.TagNFTBreak,
			lcdTx(0, "", execMsg("terra1u", roles.NFT, `{"break_nft":{"token_id":"1"}}`), "", "")},
		{"daodao-claim-nfts", model.TagDaoDaoClaimNFTs,
			lcdTx(0, "", execMsg("terra1u", roles.DaoDaoStaking, `{"claim_nfts":{}}`), "", "")},
		{"daodao-unstake", model.TagDaoDaoUnstake,
			lcdTx(0, "", execMsg("terra1u", roles.DaoDaoStaking, `{"unstake":{"token_ids":["1"]}}`), "", "")},
		{"boost-stake-daodao", model.TagBoostStakeDaoDao,
			lcdTx(0, "staked via boostdao.io", daoSend, wasm("action", "send_nft"), "")},
		{"daodao-stake", model.TagDaoDaoStake,
			lcdTx(0, "", daoSend, wasm("action", "send_nft"), "")},
		{"enterprise-unstake-boost", model.TagEnterpriseUnstakeBoost,
			lcdTx(0, "boostdao.io", execMsg("terra1u", roles.EnterpriseTool, `{"claim":{}}`), "", "")},
		{"enterprise-claim-nfts", model.TagEnterpriseClaimNFTs,
			lcdTx(0, "", execMsg("terra1u", roles.EnterpriseTool, `{"claim":{}}`), "", "")},
		{"enterprise-unstake", model.TagEnterpriseUnstake,
			lcdTx(0, "", execMsg("terra1u", roles.EnterpriseTool, `{"unstake":{"nft_ids":["1"]}}`), "", "")},
		{"bbl-collection-offer", model.TagBBLCollectionOffer,
			lcdTx(0, "", execMsg("terra1u", roles.BBLMarketplace, `{"make_collection_offer":{"price":"1000000"}}`), "", "")},
		{"bbl-collection-offer-accepted", model.TagBBLCollectionOfferAccept,
			lcdTx(0, "", execMsg("terra1u", roles.BBLMarketplace, `{"accept_collection_offer":{"offer_id":"3"}}`), "", "")},
		{"bbl-delist", model.TagBBLDelist,
			lcdTx(0, "", execMsg("terra1u", roles.BBLMarketplace, `{"cancel_auction":{"auction_id":"17"}}`), "", "")},
		{"bbl-sale", model.TagBBLSale,
			lcdTx(0, "", execMsg("terra1u", roles.BBLMarketplace, `{"settle":{"auction_id":"17"}}`), "", "")},
		{"bbl-bid", model.TagBBLBid,
			lcdTx(0, "", execMsg("terra1u", roles.BBLMarketplace, `{"place_bid":{"auction_id":"17"}}`), "", "")},
		{"bbl-listing", model.TagBBLListing,
			lcdTx(0, "", execMsg("terra1owner", roles.NFT,
				fmt.Sprintf(`{"send_nft":{"contract":%q,"token_id":"42","msg":%q}}`, roles.BBLMarketplace, hook)), "", "")},
		{"boost-sale", model.TagBoostSale,
			lcdTx(0, "", execMsg("terra1u", roles.BoostProtocol, `{"deposit":{}}`)+","+
				execMsg("terra1u", roles.BoostProtocol, `{"buy":{"listing_id":"1"}}`), "", "")},
		{"boost-cancel", model.TagBoostCancel,
			lcdTx(0, "", execMsg("terra1u", roles.BoostProtocol, `{"cancel":{"listing_id":"1"}}`), "", "")},
		{"boost-listing", model.TagBoostListing,
			lcdTx(0, "", execMsg("terra1u", roles.BoostProtocol, `{"setup":{"price":"1000000"}}`), "", "")},
		{"boost-transfer", model.TagBoostTransfer,
			lcdTx(0, "boostdao.io", transfer("terra1bob", "3"), "", "")},
		{"nftswitch-otc-complete", model.TagNFTSwitchOTCComplete,
			lcdTx(0, "", execMsg("terra1u", roles.OTCContract, `{"execute_trade":{"trade_id":1}}`), "", "")},
		{"nftswitch-otc-confirm", model.TagNFTSwitchOTCConfirm,
			lcdTx(0, "", execMsg("terra1u", roles.OTCContract, `{"confirm_trade":{"trade_id":1}}`), "", "")},
		{"nftswitch-otc-create", model.TagNFTSwitchOTCCreate,
			lcdTx(0, "", execMsg("terra1u", roles.NFT, fmt.Sprintf(`{"approve":{"spender":%q,"token_id":"1"}}`, roles.OTCContract))+","+
				execMsg("terra1u", roles.OTCContract, `{"add_nfts":{"trade_id":1}}`), "", "")},
		{"nftswitch-sale", model.TagNFTSwitchSale,
			lcdTx(0, "", execMsg("terra1u", roles.NFTSwitch, `{"deposit":{"mode":"solid"}}`), "", "")},
		{"nftswitch-cancel", model.TagNFTSwitchCancel,
			lcdTx(0, "", execMsg("terra1u", roles.NFTSwitch, `{"cancel":{"listing_id":"1"}}`), "", "")},
		{"nftswitch-listing", model.TagNFTSwitchListing,
			lcdTx(0, "", execMsg("terra1u", roles.NFTSwitch, `{"setup":{"price":"1000000"}}`), "", "")},
		{"nftswitch-batch-transfer", model.TagNFTSwitchBatchTransfer,
			lcdTx(0, "nftswitch batch", transfer("terra1bob", "3")+","+transfer("terra1bob", "4"), "", "")},
		{"p2p-transfer", model.TagP2PTransfer,
			lcdTx(0, "", transfer("terra1bob", "3"), "", "")},
		{"generic-stake", model.TagGenericStake,
			lcdTx(0, "", execMsg("terra1u", "terra1othercontract", `{"noop":{}}`), "", wasm("action", "stake_nft"))},
		{"generic-unstake", model.TagGenericUnstake,
			lcdTx(0, "", execMsg("terra1u", "terra1othercontract", `{"noop":{}}`), "", wasm("action", "unstake_nft"))},
		{"reward-claim", model.TagRewardClaim,
			lcdTx(0, "", execMsg("terra1u", "terra1othercontract", `{"noop":{}}`), "", wasm("action", "claim_airdrop"))},
		{"fallback", model.TagUnknown,
			lcdTx(0, "", execMsg("terra1u", "terra1othercontract", `{"noop":{}}`), "", wasm("action", "mint"))},
	}

	c := newTestClassifier()
	covered := map[string]bool{}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			tag, rule := c.Explain(decode(t, tt.payload))
			assert.Equal(t, tt.rule, rule)
			assert.Equal(t, tt.tag, tag)
		})
		covered[tt.rule] = true
	}
	for _, r := range c.Rules() {
		assert.True(t, covered[r.Name], "no case for rule %s", r.Name)
	}
}

func TestMemoTextDoesNotTriggerActions(t *testing.T) {
	c := newTestClassifier()
	hook := base64.StdEncoding.EncodeToString([]byte(`{"create_auction":{"token_id":"42","reserve_price":"100000000","denom":"uluna"}}`))
	listing := decode(t, lcdTx(0, "will settle next week", execMsg("terra1owner", roles.NFT,
		fmt.Sprintf(`{"send_nft":{"contract":%q,"token_id":"42","msg":%q}}`, roles.BBLMarketplace, hook)),
		wasm("action", "send_nft"), ""))
	_, rule := c.Explain(listing)
	assert.Equal(t, "bbl-listing", rule)

	stake := decode(t, lcdTx(0, "do not unstake", execMsg("terra1staker", roles.NFT,
		fmt.Sprintf(`{"send_nft":{"contract":%q,"token_id":"5","msg":"eyJzdGFrZSI6e319"}}`, roles.DaoDaoStaking)),
		wasm("action", "send_nft"), ""))
	_, rule = c.Explain(stake)
	assert.Equal(t, "daodao-stake", rule)

	gift := decode(t, lcdTx(0, "gift, not a break_nft", execMsg("terra1alice", roles.NFT,
		`{"transfer_nft":{"recipient":"terra1bob","token_id":"3"}}`), "", ""))
	_, rule = c.Explain(gift)
	assert.Equal(t, "p2p-transfer", rule)
}
