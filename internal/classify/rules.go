package classify

import "txScope/internal/model"

// Rule is one entry of the ordered decision list. The first matching rule wins.
type Rule struct {
	Name  string
	Tag   model.EventTag
	Match func(f *Facts) bool
}

func buildRules(roles model.ContractRoles) []Rule {
	notToKnownContract := func(f *Facts) bool {
		return !roles.IsKnownContract(f.FirstTransferRecipient())
	}

	return []Rule{
		{"alliance-claim-failed", model.TagAllyRewardsClaimFailed, func(f *Facts) bool {
			return f.Contains("claim_rewards") && f.Involves(roles.NFT) && f.Tx.Code != 0
		}},
		{"alliance-claim", model.TagAllianceClaim, func(f *Facts) bool {
			return f.Contains("claim_rewards") && f.Involves(roles.NFT)
		}},
		{"nft-break", model.TagNFTBreak, func(f *Facts) bool { return f.Contains("break_nft") }},

		{"daodao-claim-nfts", model.TagDaoDaoClaimNFTs, func(f *Facts) bool {
			return f.DaoDao && f.Contains("claim_nfts")
		}},
		{"daodao-unstake", model.TagDaoDaoUnstake, func(f *Facts) bool {
			return f.DaoDao && f.Contains("unstake")
		}},
		{"boost-stake-daodao", model.TagBoostStakeDaoDao, func(f *Facts) bool {
			return f.DaoDao && daoStake(f) && f.BoostMemo
		}},
		{"daodao-stake", model.TagDaoDaoStake, func(f *Facts) bool {
			return f.DaoDao && daoStake(f)
		}},

		// The enterprise tool is retired: only claim-backs and unstakes happen.
		{"enterprise-unstake-boost", model.TagEnterpriseUnstakeBoost, func(f *Facts) bool {
			return f.Enterprise && f.Contains("claim") && f.BoostMemo
		}},
		{"enterprise-claim-nfts", model.TagEnterpriseClaimNFTs, func(f *Facts) bool {
			return f.Enterprise && f.Contains("claim")
		}},
		{"enterprise-unstake", model.TagEnterpriseUnstake, func(f *Facts) bool {
			return f.Enterprise && f.Contains("unstake")
		}},

		{"bbl-collection-offer", model.TagBBLCollectionOffer, func(f *Facts) bool {
			return f.BBL && f.Contains("make_collection_offer")
		}},
		{"bbl-collection-offer-accepted", model.TagBBLCollectionOfferAccept, func(f *Facts) bool {
			return f.BBL && f.Contains("accept_collection_offer")
		}},
		// Cancelled auctions also emit a settle hook, so delist must precede sale.
		{"bbl-delist", model.TagBBLDelist, func(f *Facts) bool {
			return f.BBL && (f.Contains("cancel_auction") || f.Has("cancel"))
		}},
		{"bbl-sale", model.TagBBLSale, func(f *Facts) bool { return f.BBL && f.Contains("settle") }},
		{"bbl-bid", model.TagBBLBid, func(f *Facts) bool { return f.BBL && f.Contains("place_bid") }},
		{"bbl-listing", model.TagBBLListing, func(f *Facts) bool {
			return f.BBL && (f.Contains("create_auction") || f.Contains("send_nft"))
		}},

		{"boost-sale", model.TagBoostSale, func(f *Facts) bool {
			return f.Boost && f.Contains("deposit") && f.MessageCount() >= 2
		}},
		{"boost-cancel", model.TagBoostCancel, func(f *Facts) bool {
			return f.Boost && (f.Has("cancel") || f.Contains("launch-nft/cancel"))
		}},
		{"boost-listing", model.TagBoostListing, func(f *Facts) bool { return f.Boost && f.Contains("setup") }},
		{"boost-transfer", model.TagBoostTransfer, func(f *Facts) bool {
			return f.Boost && f.BoostMemo && f.Contains("transfer_nft") && notToKnownContract(f)
		}},

		{"nftswitch-otc-complete", model.TagNFTSwitchOTCComplete, func(f *Facts) bool {
			return f.NFTSwitch && f.Contains("execute_trade")
		}},
		{"nftswitch-otc-confirm", model.TagNFTSwitchOTCConfirm, func(f *Facts) bool {
			return f.NFTSwitch && f.Contains("confirm_trade")
		}},
		{"nftswitch-otc-create", model.TagNFTSwitchOTCCreate, func(f *Facts) bool {
			return f.NFTSwitch && (f.Contains("create_trade") || (f.Contains("approve") && f.MessageCount() >= 2))
		}},
		{"nftswitch-sale", model.TagNFTSwitchSale, func(f *Facts) bool {
			return f.NFTSwitch && f.Contains("deposit") && f.Contains("solid")
		}},
		{"nftswitch-cancel", model.TagNFTSwitchCancel, func(f *Facts) bool { return f.NFTSwitch && f.Has("cancel") }},
		{"nftswitch-listing", model.TagNFTSwitchListing, func(f *Facts) bool { return f.NFTSwitch && f.Contains("setup") }},
		{"nftswitch-batch-transfer", model.TagNFTSwitchBatchTransfer, func(f *Facts) bool {
			return f.NFTSwitch && f.NFTSwitchMemo && f.MessageCount() > 1 && f.UniformTransferBatch()
		}},

		{"p2p-transfer", model.TagP2PTransfer, func(f *Facts) bool {
			recipient := f.FirstTransferRecipient()
			return f.Contains("transfer_nft") && !f.KnownFamily() && !f.ToolMemo() &&
				recipient != "" && !roles.IsKnownContract(recipient)
		}},

		{"generic-stake", model.TagGenericStake, func(f *Facts) bool { return f.genericTag == model.TagGenericStake }},
		{"generic-unstake", model.TagGenericUnstake, func(f *Facts) bool { return f.genericTag == model.TagGenericUnstake }},
		{"reward-claim", model.TagRewardClaim, func(f *Facts) bool { return f.genericTag == model.TagRewardClaim }},
	}
}

func daoStake(f *Facts) bool {
	return f.Contains("send_nft") || f.Action("stake")
}
