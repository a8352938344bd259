package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rpc"

	"txScope/internal/model"
)

// RPCClient queries a CometBFT node over JSON-RPC.
type RPCClient struct {
	rpcClient *rpc.Client

	mu      sync.RWMutex
	tsCache map[uint64]string
}

// NewRPCClient dials the CometBFT RPC endpoint.
func NewRPCClient(ctx context.Context, rpcURL string) (*RPCClient, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &RPCClient{
		rpcClient: rpcClient,
		tsCache:   make(map[uint64]string),
	}, nil
}

// Close closes the underlying RPC client.
func (c *RPCClient) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// Name identifies the source in logs and records.
func (c *RPCClient) Name() string { return model.SourceRPC }

type searchPage struct {
	Txs        []json.RawMessage `json:"txs"`
	TotalCount string            `json:"total_count"`
}

type searchHeader struct {
	Hash   string `json:"hash"`
	Height string `json:"height"`
}

// TxSearch runs a tx_search query and returns the raw result entries and total count.
func (c *RPCClient) TxSearch(ctx context.Context, query string, page, perPage int) ([]json.RawMessage, int, error) {
	var out searchPage
	if err := c.rpcClient.CallContext(ctx, &out, "tx_search", query, false, strconv.Itoa(page), strconv.Itoa(perPage), "asc"); err != nil {
		return nil, 0, fmt.Errorf("tx_search %q: %w", query, err)
	}
	total, _ := strconv.Atoi(out.TotalCount)
	return out.Txs, total, nil
}

// TxsAtHeight returns every transaction included at height.
func (c *RPCClient) TxsAtHeight(ctx context.Context, height uint64) ([]model.RawRecord, error) {
	query := fmt.Sprintf("tx.height=%d", height)
	const perPage = 100

	var records []model.RawRecord
	for page := 1; ; page++ {
		txs, total, err := c.TxSearch(ctx, query, page, perPage)
		if err != nil {
			return nil, err
		}
		for _, raw := range txs {
			records = append(records, c.record(raw, height))
		}
		if len(txs) == 0 || len(records) >= total {
			break
		}
	}
	return records, nil
}

// TxByHash looks a transaction up by hash. ok is false when it is not found.
func (c *RPCClient) TxByHash(ctx context.Context, hash string) (model.RawRecord, bool, error) {
	txs, _, err := c.TxSearch(ctx, fmt.Sprintf("tx.hash='%s'", hash), 1, 1)
	if err != nil {
		return model.RawRecord{}, false, err
	}
	if len(txs) == 0 {
		return model.RawRecord{}, false, nil
	}
	return c.record(txs[0], 0), true, nil
}

func (c *RPCClient) record(raw json.RawMessage, height uint64) model.RawRecord {
	var header searchHeader
	_ = json.Unmarshal(raw, &header)
	if h, err := strconv.ParseUint(header.Height, 10, 64); err == nil {
		height = h
	}
	return model.RawRecord{
		Source:    model.SourceRPC,
		Hash:      header.Hash,
		Height:    height,
		FetchedAt: time.Now().UTC().Format(time.RFC3339),
		Payload:   raw,
	}
}

type blockResult struct {
	Block struct {
		Header struct {
			Height string `json:"height"`
			Time   string `json:"time"`
		} `json:"header"`
	} `json:"block"`
}

// BlockTimestamp returns the block time, using an in-memory cache.
func (c *RPCClient) BlockTimestamp(ctx context.Context, height uint64) (string, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[height]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	var out blockResult
	if err := c.rpcClient.CallContext(ctx, &out, "block", strconv.FormatUint(height, 10)); err != nil {
		return "", fmt.Errorf("block %d: %w", height, err)
	}
	ts = out.Block.Header.Time
	if ts == "" {
		return "", fmt.Errorf("block %d: missing header time", height)
	}

	c.mu.Lock()
	c.tsCache[height] = ts
	c.mu.Unlock()

	return ts, nil
}

type statusResult struct {
	SyncInfo struct {
		LatestBlockHeight string `json:"latest_block_height"`
	} `json:"sync_info"`
}

// LatestHeight returns the node's latest block height.
func (c *RPCClient) LatestHeight(ctx context.Context) (uint64, error) {
	var out statusResult
	if err := c.rpcClient.CallContext(ctx, &out, "status"); err != nil {
		return 0, fmt.Errorf("status: %w", err)
	}
	height, err := strconv.ParseUint(out.SyncInfo.LatestBlockHeight, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse latest height %q: %w", out.SyncInfo.LatestBlockHeight, err)
	}
	return height, nil
}
