package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txScope/internal/model"
)

func TestBlockTime(t *testing.T) {
	assert.Nil(t, blockTime(""))
	assert.Nil(t, blockTime("yesterday"))

	ts := blockTime("2024-03-01T12:30:00.123456789Z")
	require.NotNil(t, ts)
	assert.Equal(t, 2024, ts.Year())
	assert.Equal(t, 30, ts.Minute())
}

func TestNewStoreRequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "")
	assert.EqualError(t, err, "pg dsn is required")
}

// TestStoreIntegration runs against a real database when TXSCOPE_TEST_PG_DSN is set.
func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TXSCOPE_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TXSCOPE_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	store, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.EnsureSchema(ctx))

	rec := model.TransactionRecord{TxHash: "itest-1", BlockHeight: 10, Timestamp: "2024-03-01T00:00:00Z",
		EventType: model.TagBBLSale, NFT: model.NFTRecord{TokenIDs: []string{"1"}, Count: 1}}
	require.NoError(t, store.PutBatch(ctx, []model.TransactionRecord{rec}))
	rec.EventType = model.TagBBLListing
	require.NoError(t, store.PutBatch(ctx, []model.TransactionRecord{rec}))

	got, err := store.Records(ctx, 9)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, model.TagBBLListing, got[0].EventType)

	require.NoError(t, store.SaveState(ctx, "itest", 42))
	height, ok, err := store.LoadState(ctx, "itest")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), height)
}
