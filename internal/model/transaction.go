package model

// Transaction is the canonical ledger transaction produced by the input adapters.
type Transaction struct {
	Hash      string    `json:"hash"`
	Height    uint64    `json:"height"`
	Timestamp string    `json:"timestamp"`
	Code      uint32    `json:"code"`
	Memo      string    `json:"memo"`
	Messages  []Message `json:"messages"`
	Fee       Fee       `json:"fee"`
	Logs      []Log     `json:"logs"`
	Events    []Event   `json:"events"`
}

// Message is a single transaction message with its decoded contract call.
// Fields keeps the whole message object; Body is its decoded msg payload.
type Message struct {
	TypeURL  string                 `json:"type_url"`
	Sender   string                 `json:"sender"`
	Contract string                 `json:"contract"`
	Funds    []Coin                 `json:"funds"`
	Body     map[string]interface{} `json:"body"`
	Fields   map[string]interface{} `json:"-"`
	Call     Call                   `json:"-"`
}

// BodyString returns a top-level string field of the msg payload.
func (m Message) BodyString(key string) string {
	if m.Body == nil {
		return ""
	}
	s, _ := m.Body[key].(string)
	return s
}

// Coin is an amount in base units with its denomination.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// Fee is the gas fee from the auth envelope.
type Fee struct {
	Amount   []Coin `json:"amount"`
	GasLimit string `json:"gas_limit"`
	Payer    string `json:"payer"`
	Granter  string `json:"granter"`
}

// Log groups the events emitted by one message.
type Log struct {
	MsgIndex int     `json:"msg_index"`
	Events   []Event `json:"events"`
}

type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Attr returns the first attribute value for key.
func (e Event) Attr(key string) (string, bool) {
	for _, attr := range e.Attributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// AttrAny returns the first attribute whose key is any of keys, in attribute order.
func (e Event) AttrAny(keys ...string) (string, bool) {
	for _, attr := range e.Attributes {
		for _, key := range keys {
			if attr.Key == key {
				return attr.Value, true
			}
		}
	}
	return "", false
}

// LogEvents returns the per-log events in emission order.
func (t Transaction) LogEvents() []Event {
	var out []Event
	for _, log := range t.Logs {
		out = append(out, log.Events...)
	}
	return out
}

// AllEvents returns per-log events followed by top-level events.
func (t Transaction) AllEvents() []Event {
	out := t.LogEvents()
	return append(out, t.Events...)
}

// FirstSender returns the sender of the first message, if any.
func (t Transaction) FirstSender() string {
	if len(t.Messages) == 0 {
		return ""
	}
	return t.Messages[0].Sender
}
