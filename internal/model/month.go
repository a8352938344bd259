package model

// MonthDocument is one exported month of persisted transactions.
type MonthDocument struct {
	Metadata     MonthMetadata       `json:"metadata"`
	Transactions []TransactionRecord `json:"transactions"`
}

type MonthMetadata struct {
	Version           string         `json:"version"`
	GeneratedAt       string         `json:"generated_at"`
	Month             string         `json:"month"`
	MonthNumber       int            `json:"month_number"`
	Year              int            `json:"year"`
	IsComplete        bool           `json:"is_complete"`
	DateRange         DateRange      `json:"date_range"`
	TotalTransactions int            `json:"total_transactions"`
	BlockRange        BlockRange     `json:"block_range"`
	EventTypes        map[string]int `json:"event_types"`
	DataSource        string         `json:"data_source,omitempty"`
	LastUpdated       string         `json:"last_updated,omitempty"`
}

type DateRange struct {
	Oldest string `json:"oldest"`
	Newest string `json:"newest"`
}

type BlockRange struct {
	Min uint64 `json:"min"`
	Max uint64 `json:"max"`
}
