package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"txScope/internal/amount"
	"txScope/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. TXSCOPE_LCD.
const EnvPrefix = "TXSCOPE"

// Domain holds the ledger-specific lookups shared by all commands.
type Domain struct {
	Contracts model.ContractRoles
	Memos     model.MemoSignatures
	HRP       string
	Aliases   []amount.Alias
}

// DefaultDomain returns the built-in mainnet lookups.
func DefaultDomain() Domain {
	roles := model.DefaultContractRoles()
	return Domain{
		Contracts: roles,
		Memos:     model.DefaultMemoSignatures(),
		HRP:       "terra",
		Aliases:   amount.DefaultAliases(roles),
	}
}

// Formatter builds the amount formatter for this domain.
func (d Domain) Formatter() *amount.Formatter {
	return amount.NewFormatter(d.Aliases, d.HRP)
}

// newViper merges a config file, environment variables, and flags. defaults
// are applied before flags are bound so unset flags fall through to them.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

// loadDomain overlays the contracts, memos, hrp and aliases keys onto the defaults.
// A configured alias list replaces the built-in one.
func loadDomain(v *viper.Viper) (Domain, error) {
	d := DefaultDomain()
	if v.IsSet("contracts") {
		if err := v.UnmarshalKey("contracts", &d.Contracts); err != nil {
			return Domain{}, fmt.Errorf("decode contracts: %w", err)
		}
	}
	if v.IsSet("memos") {
		if err := v.UnmarshalKey("memos", &d.Memos); err != nil {
			return Domain{}, fmt.Errorf("decode memos: %w", err)
		}
	}
	if hrp := strings.TrimSpace(v.GetString("hrp")); hrp != "" {
		d.HRP = hrp
	}
	if v.IsSet("aliases") {
		var aliases []amount.Alias
		if err := v.UnmarshalKey("aliases", &aliases); err != nil {
			return Domain{}, fmt.Errorf("decode aliases: %w", err)
		}
		if len(aliases) > 0 {
			d.Aliases = aliases
		}
	} else {
		d.Aliases = amount.DefaultAliases(d.Contracts)
	}
	return d, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

// splitAndClean splits on commas and newlines.
func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == '\n' || r == '\r' })
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
