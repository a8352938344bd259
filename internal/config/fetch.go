package config

import (
	"time"

	"github.com/spf13/pflag"
)

// FetchConfig holds configuration for the fetch command.
type FetchConfig struct {
	LCDURL            string
	RPCURL            string
	Source            string
	Heights           []string
	HeightsFile       string
	FromHeight        uint64
	ToHeight          uint64
	Hash              string
	BatchSize         uint64
	Out               string
	Checkpoint        string
	CheckpointEnabled bool
	PaceEvery         int
	PaceDelay         time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
	MetricsAddr       string
	LogLevel          string
	Domain            Domain
}

// LoadFetch merges config file, environment variables, and flags into FetchConfig.
func LoadFetch(cfgFile string, flags *pflag.FlagSet) (FetchConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"lcd":                "https://terra-lcd.publicnode.com",
		"source":             "lcd",
		"batch-size":         uint64(100),
		"out":                "./data/raw_txs.jsonl",
		"checkpoint":         "./data/fetch_checkpoint.json",
		"checkpoint-enabled": true,
		"pace-every":         10,
		"pace-delay":         100 * time.Millisecond,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
	})
	if err != nil {
		return FetchConfig{}, err
	}
	domain, err := loadDomain(v)
	if err != nil {
		return FetchConfig{}, err
	}

	return FetchConfig{
		LCDURL:            v.GetString("lcd"),
		RPCURL:            v.GetString("rpc"),
		Source:            v.GetString("source"),
		Heights:           getStringSlice(v, "heights"),
		HeightsFile:       v.GetString("heights-file"),
		FromHeight:        v.GetUint64("from"),
		ToHeight:          v.GetUint64("to"),
		Hash:              v.GetString("hash"),
		BatchSize:         v.GetUint64("batch-size"),
		Out:               v.GetString("out"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		PaceEvery:         v.GetInt("pace-every"),
		PaceDelay:         v.GetDuration("pace-delay"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		MetricsAddr:       v.GetString("metrics-addr"),
		LogLevel:          v.GetString("log-level"),
		Domain:            domain,
	}, nil
}
