package config

import (
	"runtime"

	"github.com/spf13/pflag"
)

// ClassifyConfig holds configuration for the classify command.
type ClassifyConfig struct {
	In          string
	Out         string
	Errors      string
	Sink        string
	PGDSN       string
	NATSURL     string
	NATSSubject string
	BatchSize   int
	Workers     int
	MetricsAddr string
	LogLevel    string
	Domain      Domain
}

// LoadClassify merges config file, environment variables, and flags into ClassifyConfig.
func LoadClassify(cfgFile string, flags *pflag.FlagSet) (ClassifyConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out":          "./data/transactions.jsonl",
		"errors":       "./data/classify_errors.jsonl",
		"sink":         "jsonl",
		"nats-subject": "txscope.tx",
		"batch-size":   500,
		"workers":      runtime.NumCPU(),
	})
	if err != nil {
		return ClassifyConfig{}, err
	}
	domain, err := loadDomain(v)
	if err != nil {
		return ClassifyConfig{}, err
	}

	return ClassifyConfig{
		In:          v.GetString("in"),
		Out:         v.GetString("out"),
		Errors:      v.GetString("errors"),
		Sink:        v.GetString("sink"),
		PGDSN:       v.GetString("pg-dsn"),
		NATSURL:     v.GetString("nats-url"),
		NATSSubject: v.GetString("nats-subject"),
		BatchSize:   v.GetInt("batch-size"),
		Workers:     v.GetInt("workers"),
		MetricsAddr: v.GetString("metrics-addr"),
		LogLevel:    v.GetString("log-level"),
		Domain:      domain,
	}, nil
}
