package model

import "strings"

// EventTag is the classification assigned to a transaction.
type EventTag string

const (
	TagAllianceClaim            EventTag = "ALLIANCE_CLAIM"
	TagAllyRewardsClaimFailed   EventTag = "ALLY_REWARDS_CLAIM_FAILED"
	TagNFTBreak                 EventTag = "NFT_BREAK"
	TagDaoDaoStake              EventTag = "DAODAO_STAKE"
	TagDaoDaoUnstake            EventTag = "DAODAO_UNSTAKE"
	TagDaoDaoClaimNFTs          EventTag = "DAODAO_CLAIM_NFTS"
	TagEnterpriseUnstake        EventTag = "ENTERPRISE_UNSTAKE"
	TagEnterpriseClaimNFTs      EventTag = "ENTERPRISE_CLAIM_NFTS"
	TagEnterpriseUnstakeBoost   EventTag = "ENTERPRISE_UNSTAKE_BOOST"
	TagBBLSale                  EventTag = "BBL_SALE"
	TagBBLListing               EventTag = "BBL_LISTING"
	TagBBLDelist                EventTag = "BBL_DELIST"
	TagBBLBid                   EventTag = "BBL_BID"
	TagBBLCollectionOffer       EventTag = "BBL_COLLECTION_OFFER"
	TagBBLCollectionOfferAccept EventTag = "BBL_COLLECTION_OFFER_ACCEPTED"
	TagBoostSale                EventTag = "BOOST_SALE"
	TagBoostListing             EventTag = "BOOST_LISTING"
	TagBoostCancel              EventTag = "BOOST_CANCEL"
	TagBoostTransfer            EventTag = "BOOST_TRANSFER"
	TagBoostStakeDaoDao         EventTag = "BOOST_STAKE_DAODAO"
	TagNFTSwitchSale            EventTag = "NFTSWITCH_SALE"
	TagNFTSwitchListing         EventTag = "NFTSWITCH_LISTING"
	TagNFTSwitchCancel          EventTag = "NFTSWITCH_CANCEL"
	TagNFTSwitchOTCCreate       EventTag = "NFTSWITCH_OTC_CREATE"
	TagNFTSwitchOTCConfirm      EventTag = "NFTSWITCH_OTC_CONFIRM"
	TagNFTSwitchOTCComplete     EventTag = "NFTSWITCH_OTC_COMPLETE"
	TagNFTSwitchBatchTransfer   EventTag = "NFTSWITCH_BATCH_TRANSFER"
	TagP2PTransfer              EventTag = "P2P_TRANSFER"
	TagGenericStake             EventTag = "GENERIC_STAKE"
	TagGenericUnstake           EventTag = "GENERIC_UNSTAKE"
	TagRewardClaim              EventTag = "REWARD_CLAIM"
	TagUnknown                  EventTag = "UNKNOWN_EVENT"
	TagErrorClassifying         EventTag = "ERROR_CLASSIFYING"
)

// AllEventTags lists every tag the classifier can produce.
var AllEventTags = []EventTag{
	TagAllianceClaim, TagAllyRewardsClaimFailed, TagNFTBreak,
	TagDaoDaoStake, TagDaoDaoUnstake, TagDaoDaoClaimNFTs,
	TagEnterpriseUnstake, TagEnterpriseClaimNFTs, TagEnterpriseUnstakeBoost,
	TagBBLSale, TagBBLListing, TagBBLDelist, TagBBLBid, TagBBLCollectionOffer, TagBBLCollectionOfferAccept,
	TagBoostSale, TagBoostListing, TagBoostCancel, TagBoostTransfer, TagBoostStakeDaoDao,
	TagNFTSwitchSale, TagNFTSwitchListing, TagNFTSwitchCancel,
	TagNFTSwitchOTCCreate, TagNFTSwitchOTCConfirm, TagNFTSwitchOTCComplete, TagNFTSwitchBatchTransfer,
	TagP2PTransfer, TagGenericStake, TagGenericUnstake, TagRewardClaim,
	TagUnknown, TagErrorClassifying,
}

var validTags = func() map[EventTag]struct{} {
	out := make(map[EventTag]struct{}, len(AllEventTags))
	for _, tag := range AllEventTags {
		out[tag] = struct{}{}
	}
	return out
}()

// Valid reports whether the tag belongs to the closed tag set.
func (t EventTag) Valid() bool {
	_, ok := validTags[t]
	return ok
}

func (t EventTag) String() string { return string(t) }

// IsSale covers marketplace sales and purchases.
func (t EventTag) IsSale() bool {
	return strings.Contains(string(t), "SALE") || strings.Contains(string(t), "PURCHASE")
}

func (t EventTag) IsListing() bool { return strings.Contains(string(t), "LISTING") }

// IsClaim covers reward claims as well as NFT claim-backs from staking contracts.
func (t EventTag) IsClaim() bool { return strings.Contains(string(t), "CLAIM") }

func (t EventTag) IsStake() bool {
	return strings.Contains(string(t), "STAKE") && !strings.Contains(string(t), "UNSTAKE")
}

func (t EventTag) IsOTCCreate() bool   { return t == TagNFTSwitchOTCCreate }
func (t EventTag) IsOTCComplete() bool { return t == TagNFTSwitchOTCComplete }

// IsCancel covers delists and cancelled listings, which never carry a price.
func (t EventTag) IsCancel() bool {
	return t == TagBBLDelist || strings.HasSuffix(string(t), "_CANCEL")
}

// IsUnclassified reports the tags operators monitor for unrecognised traffic.
func (t EventTag) IsUnclassified() bool {
	return t == TagUnknown || t == TagErrorClassifying
}
