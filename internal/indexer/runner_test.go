package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"txScope/internal/model"
)

const testContract = "terra1phr9fngjv7a8an4dhmhd0u0f98wazxfnzccqtyheq4zqrrp4fpuqw3apw9"

type fakeSource struct {
	name     string
	byHeight map[uint64][]model.RawRecord
	byHash   map[string]model.RawRecord
	fail     map[uint64]int
	latest   uint64
	calls    []uint64
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) TxsAtHeight(_ context.Context, height uint64) ([]model.RawRecord, error) {
	f.calls = append(f.calls, height)
	if f.fail[height] > 0 {
		f.fail[height]--
		return nil, errors.New("503")
	}
	return f.byHeight[height], nil
}

func (f *fakeSource) TxByHash(_ context.Context, hash string) (model.RawRecord, bool, error) {
	rec, ok := f.byHash[hash]
	return rec, ok, nil
}

func (f *fakeSource) LatestHeight(context.Context) (uint64, error) { return f.latest, nil }

type timedSource struct{ *fakeSource }

func (timedSource) BlockTimestamp(_ context.Context, height uint64) (string, error) {
	return fmt.Sprintf("ts-%d", height), nil
}

type memorySink struct{ batches [][]model.RawRecord }

func (m *memorySink) PutRawBatch(_ context.Context, records []model.RawRecord) error {
	m.batches = append(m.batches, records)
	return nil
}

func (m *memorySink) hashes() []string {
	var out []string
	for _, b := range m.batches {
		for _, rec := range b {
			out = append(out, rec.Hash)
		}
	}
	return out
}

type countingRecorder struct{ fetches, scanned int }

func (c *countingRecorder) RecordFetch(string, time.Duration, error) { c.fetches++ }
func (c *countingRecorder) RecordHeightScanned()                      { c.scanned++ }

func nftRecord(hash string, height uint64) model.RawRecord {
	payload, _ := json.Marshal(map[string]interface{}{
		"txhash": hash,
		"height": fmt.Sprint(height),
		"events": []map[string]interface{}{{
			"type":       "wasm",
			"attributes": []map[string]string{{"key": "_contract_address", "value": testContract}},
		}},
	})
	return model.RawRecord{Source: model.SourceLCD, Hash: hash, Height: height, Timestamp: "2024-03-01T00:00:00Z", Payload: payload}
}

func otherRecord(hash string, height uint64) model.RawRecord {
	return model.RawRecord{Source: model.SourceLCD, Hash: hash, Height: height, Payload: json.RawMessage(`{"txhash":"` + hash + `"}`)}
}

func TestRunHeightsFiltersAndDedups(t *testing.T) {
	src := &fakeSource{name: "lcd", byHeight: map[uint64][]model.RawRecord{
		10: {nftRecord("A", 10), otherRecord("X", 10)},
		11: {nftRecord("A", 10), nftRecord("B", 11)},
	}}
	sink := &memorySink{}
	rec := &countingRecorder{}
	r := NewRunner(RunConfig{Heights: []uint64{10, 11}, Contract: testContract, BatchSize: 1}, src, nil, sink, rec, zap.NewNop())

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"A", "B"}, sink.hashes())
	assert.Len(t, sink.batches, 2)
	assert.Equal(t, 2, r.Stats().Heights)
	assert.Equal(t, 2, rec.scanned)
	assert.Equal(t, 2, rec.fetches)
}

func TestRunHeightsRetriesThenFallsBack(t *testing.T) {
	primary := &fakeSource{name: "lcd", fail: map[uint64]int{5: 10}}
	fallback := timedSource{&fakeSource{name: "rpc", byHeight: map[uint64][]model.RawRecord{
		5: {{Source: model.SourceRPC, Hash: "R", Height: 5, Payload: json.RawMessage(`{"hash":"R","note":"` + testContract + `"}`)}},
	}}}
	sink := &memorySink{}
	r := NewRunner(RunConfig{Heights: []uint64{5}, Contract: testContract, BatchSize: 10, MaxRetries: 1, RetryBackoff: time.Millisecond},
		primary, fallback, sink, nil, nil)

	require.NoError(t, r.Run(context.Background()))
	assert.Len(t, primary.calls, 2)
	require.Equal(t, []string{"R"}, sink.hashes())
	assert.Equal(t, "ts-5", sink.batches[0][0].Timestamp)
}

func TestRunHeightsSkipsFailedHeight(t *testing.T) {
	src := &fakeSource{name: "lcd", fail: map[uint64]int{7: 5}, byHeight: map[uint64][]model.RawRecord{8: {nftRecord("B", 8)}}}
	sink := &memorySink{}
	r := NewRunner(RunConfig{Heights: []uint64{7, 8}, BatchSize: 10, RetryBackoff: time.Millisecond}, src, nil, sink, nil, nil)

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []uint64{7}, r.Stats().Failed)
	assert.Equal(t, []string{"B"}, sink.hashes())
}

func TestRunRangeDescendingWithCheckpoint(t *testing.T) {
	cpPath := filepath.Join(t.TempDir(), "cp.json")
	src := &fakeSource{name: "lcd", byHeight: map[uint64][]model.RawRecord{
		100: {nftRecord("OLD", 100)},
		103: {nftRecord("NEW", 103)},
	}}
	cfg := RunConfig{FromHeight: 100, ToHeight: 103, BatchSize: 2, CheckpointPath: cpPath, CheckpointEnabled: true}

	sink := &memorySink{}
	require.NoError(t, NewRunner(cfg, src, nil, sink, nil, nil).Run(context.Background()))
	assert.Equal(t, []uint64{103, 102, 101, 100}, src.calls)
	assert.Equal(t, []string{"NEW", "OLD"}, sink.hashes())

	cp, ok, err := NewCheckpointStore(cpPath, true).Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(100), cp.LowestCompleted)

	src.calls = nil
	require.NoError(t, NewRunner(cfg, src, nil, &memorySink{}, nil, nil).Run(context.Background()))
	assert.Empty(t, src.calls)
}

func TestRunRangeResumesAndFollowsLatest(t *testing.T) {
	cpPath := filepath.Join(t.TempDir(), "cp.json")
	require.NoError(t, NewCheckpointStore(cpPath, true).Save(100, 105, 104))

	src := &fakeSource{name: "lcd", latest: 200}
	cfg := RunConfig{FromHeight: 100, BatchSize: 10, CheckpointPath: cpPath, CheckpointEnabled: true}
	require.NoError(t, NewRunner(cfg, src, nil, &memorySink{}, nil, nil).Run(context.Background()))
	assert.Equal(t, []uint64{103, 102, 101, 100}, src.calls)
}

func TestRunHashFallsBackToSecondSource(t *testing.T) {
	primary := &fakeSource{name: "lcd"}
	fallback := &fakeSource{name: "rpc", byHash: map[string]model.RawRecord{"H": otherRecord("H", 9)}}
	sink := &memorySink{}
	r := NewRunner(RunConfig{Hash: " H ", Contract: testContract, BatchSize: 1}, primary, fallback, sink, nil, nil)

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"H"}, sink.hashes())

	err := NewRunner(RunConfig{Hash: "NOPE", BatchSize: 1}, primary, fallback, sink, nil, nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrHashNotFound)
}

func TestRunPacesAndStopsOnCancel(t *testing.T) {
	src := &fakeSource{name: "lcd"}
	r := NewRunner(RunConfig{Heights: []uint64{1, 2, 3, 4}, BatchSize: 10, PaceEvery: 2, PaceDelay: time.Second}, src, nil, &memorySink{}, nil, nil)
	var sleeps int
	r.sleep = func(context.Context, time.Duration) error { sleeps++; return nil }
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, 2, sleeps)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewRunner(RunConfig{Heights: []uint64{1}, BatchSize: 1}, src, nil, &memorySink{}, nil, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunValidation(t *testing.T) {
	assert.EqualError(t, NewRunner(RunConfig{BatchSize: 1}, nil, nil, &memorySink{}, nil, nil).Run(context.Background()), "source is nil")
	assert.EqualError(t, NewRunner(RunConfig{}, &fakeSource{}, nil, &memorySink{}, nil, nil).Run(context.Background()), "batch size must be greater than zero")
	assert.EqualError(t, NewRunner(RunConfig{BatchSize: 1, ToHeight: 10}, &fakeSource{}, nil, &memorySink{}, nil, nil).Run(context.Background()), "from height is required")
}
