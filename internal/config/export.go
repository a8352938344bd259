package config

import (
	"github.com/spf13/pflag"
)

// ExportConfig holds configuration for the export command.
type ExportConfig struct {
	In         string
	OutDir     string
	Merge      bool
	OnlyNew    bool
	StateFile  string
	StateName  string
	DataSource string
	PGDSN      string
	LogLevel   string
}

// LoadExport merges config file, environment variables, and flags into ExportConfig.
func LoadExport(cfgFile string, flags *pflag.FlagSet) (ExportConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out-dir":     "./data/months",
		"merge":       true,
		"state-file":  "./data/export_state.json",
		"state-name":  "export",
		"data-source": "terra-lcd",
	})
	if err != nil {
		return ExportConfig{}, err
	}

	return ExportConfig{
		In:         v.GetString("in"),
		OutDir:     v.GetString("out-dir"),
		Merge:      v.GetBool("merge"),
		OnlyNew:    v.GetBool("only-new"),
		StateFile:  v.GetString("state-file"),
		StateName:  v.GetString("state-name"),
		DataSource: v.GetString("data-source"),
		PGDSN:      v.GetString("pg-dsn"),
		LogLevel:   v.GetString("log-level"),
	}, nil
}

// ShowConfig holds configuration for the show command.
type ShowConfig struct {
	In          string
	AddressBook string
	JQ          string
	Limit       int
	LogLevel    string
}

// LoadShow merges config file, environment variables, and flags into ShowConfig.
func LoadShow(cfgFile string, flags *pflag.FlagSet) (ShowConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"limit": 50,
	})
	if err != nil {
		return ShowConfig{}, err
	}

	return ShowConfig{
		In:          v.GetString("in"),
		AddressBook: v.GetString("address-book"),
		JQ:          v.GetString("jq"),
		Limit:       v.GetInt("limit"),
		LogLevel:    v.GetString("log-level"),
	}, nil
}
