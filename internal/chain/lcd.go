package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"txScope/internal/model"
)

// ErrNotFound is returned when the LCD reports an unknown transaction.
var ErrNotFound = errors.New("not found")

// LCDClient queries the Cosmos REST gateway.
type LCDClient struct {
	baseURL string
	http    *http.Client
}

func NewLCDClient(baseURL string, timeout time.Duration) *LCDClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LCDClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *LCDClient) Name() string { return model.SourceLCD }

type txsPage struct {
	TxResponses []json.RawMessage `json:"tx_responses"`
	Pagination  struct {
		NextKey string `json:"next_key"`
	} `json:"pagination"`
}

type lcdHeader struct {
	TxHash    string `json:"txhash"`
	Height    string `json:"height"`
	Timestamp string `json:"timestamp"`
}

// TxsAtHeight returns every tx_response included at height.
func (c *LCDClient) TxsAtHeight(ctx context.Context, height uint64) ([]model.RawRecord, error) {
	var records []model.RawRecord
	nextKey := ""
	for {
		q := url.Values{}
		q.Set("query", fmt.Sprintf("tx.height=%d", height))
		q.Set("pagination.limit", "100")
		if nextKey != "" {
			q.Set("pagination.key", nextKey)
		}

		var page txsPage
		if err := c.get(ctx, "/cosmos/tx/v1beta1/txs?"+q.Encode(), &page); err != nil {
			return nil, fmt.Errorf("txs at height %d: %w", height, err)
		}
		for _, raw := range page.TxResponses {
			records = append(records, lcdRecord(raw, raw, height))
		}
		if page.Pagination.NextKey == "" || len(page.TxResponses) == 0 {
			break
		}
		nextKey = page.Pagination.NextKey
	}
	return records, nil
}

// TxByHash fetches one transaction. The whole {tx, tx_response} envelope is kept as payload.
func (c *LCDClient) TxByHash(ctx context.Context, hash string) (model.RawRecord, bool, error) {
	var envelope struct {
		TxResponse json.RawMessage `json:"tx_response"`
	}
	var body json.RawMessage
	err := c.get(ctx, "/cosmos/tx/v1beta1/txs/"+url.PathEscape(hash), &body)
	if errors.Is(err, ErrNotFound) {
		return model.RawRecord{}, false, nil
	}
	if err != nil {
		return model.RawRecord{}, false, fmt.Errorf("tx %s: %w", hash, err)
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return model.RawRecord{}, false, fmt.Errorf("parse tx %s: %w", hash, err)
	}
	if len(envelope.TxResponse) == 0 || string(envelope.TxResponse) == "null" {
		return model.RawRecord{}, false, nil
	}
	return lcdRecord(envelope.TxResponse, body, 0), true, nil
}

func lcdRecord(header, payload json.RawMessage, height uint64) model.RawRecord {
	var h lcdHeader
	_ = json.Unmarshal(header, &h)
	if parsed, err := strconv.ParseUint(h.Height, 10, 64); err == nil {
		height = parsed
	}
	return model.RawRecord{
		Source:    model.SourceLCD,
		Hash:      h.TxHash,
		Height:    height,
		Timestamp: h.Timestamp,
		FetchedAt: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	}
}

type latestBlock struct {
	Block struct {
		Header struct {
			Height string `json:"height"`
		} `json:"header"`
	} `json:"block"`
}

// LatestHeight returns the height of the latest block known to the gateway.
func (c *LCDClient) LatestHeight(ctx context.Context) (uint64, error) {
	var out latestBlock
	if err := c.get(ctx, "/cosmos/base/tendermint/v1beta1/blocks/latest", &out); err != nil {
		return 0, fmt.Errorf("latest block: %w", err)
	}
	height, err := strconv.ParseUint(out.Block.Header.Height, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse latest height %q: %w", out.Block.Header.Height, err)
	}
	return height, nil
}

type lcdError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *LCDClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var le lcdError
		_ = json.Unmarshal(data, &le)
		// gRPC NotFound (5) surfaces as a 400 or 404 depending on the gateway version.
		if resp.StatusCode == http.StatusNotFound || le.Code == 5 {
			return ErrNotFound
		}
		if le.Message != "" {
			return fmt.Errorf("http %d: %s", resp.StatusCode, le.Message)
		}
		return fmt.Errorf("http %d", resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
