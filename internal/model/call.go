package model

// Call is the decoded contract call carried by a message. Each known call shape
// has its own variant; anything else decodes to GenericCall.
type Call interface {
	Method() string
}

// SendNFT is cw721 send_nft. Inner holds the decoded base64 hook message.
type SendNFT struct {
	Contract  string
	Recipient string
	TokenID   string
	Payload   string
	Inner     map[string]interface{}
	Auction   *CreateAuction
}

func (SendNFT) Method() string { return "send_nft" }

// CreateAuction is the marketplace hook message nested inside send_nft.
type CreateAuction struct {
	TokenID      string
	ReservePrice string
	Reserve      string
	Denom        string
	StartPrice   *Coin
}

type TransferNFT struct {
	Recipient string
	TokenID   string
}

func (TransferNFT) Method() string { return "transfer_nft" }

// CreateTrade opens an OTC trade.
type CreateTrade struct {
	SalePrice *Coin
	AskTokens []AskToken
}

func (CreateTrade) Method() string { return "create_trade" }

// AskToken is one requested asset of an OTC trade; exactly one side is set.
type AskToken struct {
	Native *Coin
	CW20   *CW20Amount
}

type CW20Amount struct {
	Address string
	Amount  string
}

// ExecuteContract wraps another call, as routed through proxy contracts.
type ExecuteContract struct {
	Contract string
	Funds    []Coin
	Inner    map[string]interface{}
	Trade    *CreateTrade
}

func (ExecuteContract) Method() string { return "execute_contract" }

type GenericCall struct {
	Name string
}

func (g GenericCall) Method() string { return g.Name }
