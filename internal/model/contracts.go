package model

import "strings"

// ContractRoles names the on-chain addresses the classifier and extractors know about.
type ContractRoles struct {
	NFT              string `mapstructure:"nft"`
	AmpLunaToken     string `mapstructure:"ampluna-token"`
	BLunaToken       string `mapstructure:"bluna-token"`
	DaoDaoStaking    string `mapstructure:"daodao-staking"`
	DaoDaoVoting     string `mapstructure:"daodao-voting"`
	BBLMarketplace   string `mapstructure:"bbl-marketplace"`
	BoostMarketplace string `mapstructure:"boost-marketplace"`
	BoostProtocol    string `mapstructure:"boost-protocol"`
	BoostFeeWallet   string `mapstructure:"boost-fee-wallet"`
	EnterpriseTool   string `mapstructure:"enterprise-tool"`
	NFTSwitch        string `mapstructure:"nft-switch"`
	OTCContract      string `mapstructure:"otc-contract"`
	OTCOperator      string `mapstructure:"otc-operator"`
	OTCFeeWallet     string `mapstructure:"otc-fee-wallet"`
	DaoTreasury      string `mapstructure:"dao-treasury"`
}

// MemoSignatures are lowercase substrings that identify tools routing through a memo.
type MemoSignatures struct {
	Boost     []string `mapstructure:"boost"`
	NFTSwitch []string `mapstructure:"nft-switch"`
	BBL       []string `mapstructure:"bbl"`
}

// DefaultContractRoles returns the Terra mainnet deployment.
func DefaultContractRoles() ContractRoles {
	return ContractRoles{
		NFT:              "terra1phr9fngjv7a8an4dhmhd0u0f98wazxfnzccqtyheq4zqrrp4fpuqw3apw9",
		AmpLunaToken:     "terra1ecgazyd0waaj3g7l9cmy5gulhxkps2gmxu9ghducvuypjq68mq2s5lvsct",
		BLunaToken:       "terra17aj4ty4sz4yhgm08na8drc0v03v2jwr3waxcqrwhajj729zhl7zqnpc0ml",
		DaoDaoStaking:    "terra1c57ur376szdv8rtes6sa9nst4k536dynunksu8tx5zu4z5u3am6qmvqx47",
		DaoDaoVoting:     "terra14gv57x9lmuc04jzsmsz5f2heyfxfndey2v8hkkjt7z9p6d7xw35stx69j2",
		BBLMarketplace:   "terra1ej4cv98e9g2zjefr5auf2nwtq4xl3dm7x0qml58yna2ml2hk595s7gccs9",
		BoostMarketplace: "terra1kj7pasyahtugajx9qud02r5jqaf60mtm7g5v9utr94rmdfftx0vqspf4at",
		BoostProtocol:    "terra1ss4tkg2de6r99s4s2cr92g2v2wea06v82klars4pelxxvsrsmgcsle7t5d",
		BoostFeeWallet:   "terra1rppeahhmtvy4fs9xr9zkjrf4xs9ak4ygy62slq",
		EnterpriseTool:   "terra1e54tcdyulrtslvf79htx4zntqntd4r550cg22sj24r6gfm0anrvq0y8tdv",
		NFTSwitch:        "terra1c22qq8c5frqg2f2n95ksm5nct255fglk2ldm3u5chmqtu5k82gnq5y0j89",
		OTCContract:      "terra1wm7rag4feqm2w3qfj85gsmn3g38mlxtfvu7zmsydnd8ez3dlkdks0n8yk0",
		OTCOperator:      "terra1hkqq2sy3dvvgt8sw2h0nfc3nzufa27d3xj69cf",
		OTCFeeWallet:     "terra1qdpyuvy9cjmelly6cf604ck7srpt040nee9cjy",
		DaoTreasury:      "terra1sffd4efk2jpdt894r04qwmtjqrrjfc52tmj6vkzjxqhd8qqu2drs3m5vzm",
	}
}

func DefaultMemoSignatures() MemoSignatures {
	return MemoSignatures{
		Boost:     []string{"boostdao.io"},
		NFTSwitch: []string{"nftswitch"},
		BBL:       []string{"backbone labs", "backbonelabs", "necropolis"},
	}
}

// KnownContracts returns the marketplace, staking and tool contracts an NFT can be sent into.
func (c ContractRoles) KnownContracts() []string {
	return nonEmpty(c.BBLMarketplace, c.BoostMarketplace, c.BoostProtocol, c.DaoDaoStaking,
		c.EnterpriseTool, c.NFTSwitch, c.OTCContract)
}

// IsKnownContract reports whether addr is one of KnownContracts.
func (c ContractRoles) IsKnownContract(addr string) bool {
	return containsFold(c.KnownContracts(), addr)
}

// IsMarketplaceOrCollector reports addresses that receive payments without being a seller.
func (c ContractRoles) IsMarketplaceOrCollector(addr string) bool {
	return containsFold(nonEmpty(c.BBLMarketplace, c.BoostMarketplace, c.BoostProtocol, c.BoostFeeWallet,
		c.NFTSwitch, c.OTCContract, c.OTCFeeWallet), addr)
}

func nonEmpty(items ...string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func containsFold(items []string, needle string) bool {
	if needle == "" {
		return false
	}
	for _, item := range items {
		if strings.EqualFold(item, needle) {
			return true
		}
	}
	return false
}
