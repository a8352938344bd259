package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint tracks a descending range scan. LowestCompleted is the lowest height whose
// batch was fully written; To identifies the scan it belongs to.
type Checkpoint struct {
	From            uint64 `json:"from"`
	To              uint64 `json:"to"`
	LowestCompleted uint64 `json:"lowest_completed"`
	UpdatedAt       string `json:"updated_at"`
}

// Finished reports whether the scan reached its lower bound.
func (cp Checkpoint) Finished() bool {
	return cp.LowestCompleted != 0 && cp.LowestCompleted <= cp.From
}

// Resume narrows the scan [from, to] to the heights the checkpoint has not covered and
// returns the upper bound the scan is keyed by. With followLatest an unfinished scan keeps
// its original upper bound. ok is false when there is nothing left to scan.
func (cp Checkpoint) Resume(from, to uint64, followLatest bool) (scan HeightRange, key uint64, ok bool) {
	full := HeightRange{From: from, To: to}
	if cp.From != from || cp.LowestCompleted == 0 {
		return full, to, true
	}
	if followLatest {
		if cp.Finished() {
			return full, to, true
		}
		return HeightRange{From: from, To: cp.LowestCompleted - 1}, cp.To, true
	}
	if cp.To != to || cp.LowestCompleted > to {
		return full, to, true
	}
	if cp.Finished() {
		return HeightRange{}, to, false
	}
	return HeightRange{From: from, To: cp.LowestCompleted - 1}, to, true
}

// CheckpointStore persists checkpoints to disk.
type CheckpointStore struct {
	path    string
	enabled bool
}

func NewCheckpointStore(path string, enabled bool) *CheckpointStore {
	return &CheckpointStore{path: path, enabled: enabled && path != ""}
}

func (c *CheckpointStore) Load() (Checkpoint, bool, error) {
	if !c.enabled {
		return Checkpoint{}, false, nil
	}

	stat, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, fmt.Errorf("stat checkpoint: %w", err)
	}
	if stat.IsDir() {
		return Checkpoint{}, false, fmt.Errorf("checkpoint path is a directory")
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint: %w", err)
	}

	return cp, true, nil
}

func (c *CheckpointStore) Save(from, to, lowestCompleted uint64) error {
	if !c.enabled {
		return nil
	}

	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	cp := Checkpoint{
		From:            from,
		To:              to,
		LowestCompleted: lowestCompleted,
		UpdatedAt:       time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}

	return nil
}
