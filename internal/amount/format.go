package amount

import (
	"strings"

	"github.com/shopspring/decimal"

	"txScope/internal/model"
)

const displayDecimals = 6

var (
	micro = decimal.New(1, displayDecimals)
	one   = decimal.NewFromInt(1)
)

// Alias maps a denomination substring to a display symbol.
type Alias struct {
	Match  string `mapstructure:"match"`
	Symbol string `mapstructure:"symbol"`
}

// DefaultSymbol is used when no alias matches a native denomination.
const DefaultSymbol = "LUNA"

// UnknownTokenSymbol is used for contract-address denominations with no alias.
const UnknownTokenSymbol = "TOKEN"

// DefaultAliases is the built-in lookup, checked in order.
func DefaultAliases(roles model.ContractRoles) []Alias {
	aliases := []Alias{}
	if roles.BLunaToken != "" {
		aliases = append(aliases, Alias{Match: roles.BLunaToken, Symbol: "bLUNA"})
	}
	aliases = append(aliases,
		Alias{Match: "ibc/05238e98", Symbol: "bLUNA"},
		Alias{Match: "ibc/b3504e092456ba618cc28ac671a71fb08c6ca0fd0c7f1b5c2cca6c28bada", Symbol: "ampLUNA"},
		Alias{Match: "ibc/05d", Symbol: "ampLUNA"},
	)
	if roles.AmpLunaToken != "" {
		aliases = append(aliases, Alias{Match: roles.AmpLunaToken, Symbol: "ampLUNA"})
	}
	return append(aliases,
		Alias{Match: "bluna", Symbol: "bLUNA"},
		Alias{Match: "ampluna", Symbol: "ampLUNA"},
		Alias{Match: "uluna", Symbol: "LUNA"},
	)
}

// Formatter renders raw amounts for display.
type Formatter struct {
	aliases []Alias
	hrp     string
}

// NewFormatter builds a Formatter. hrp is the bech32 prefix of contract
// addresses used as CW20 denominations.
func NewFormatter(aliases []Alias, hrp string) *Formatter {
	normalized := make([]Alias, 0, len(aliases))
	for _, alias := range aliases {
		if alias.Match == "" || alias.Symbol == "" {
			continue
		}
		normalized = append(normalized, Alias{Match: strings.ToLower(alias.Match), Symbol: alias.Symbol})
	}
	if hrp == "" {
		hrp = "terra"
	}
	return &Formatter{aliases: normalized, hrp: strings.ToLower(hrp)}
}

// Format renders raw with the unit-scale heuristic: values of at least one
// million are base units, values below one were already divided once.
func (f *Formatter) Format(raw, denom string) (model.Amount, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.Amount{}, false
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return model.Amount{}, false
	}

	switch {
	case value.GreaterThanOrEqual(micro):
		value = value.Div(micro)
	case value.LessThan(one):
		value = value.Mul(micro)
	}

	return model.Amount{
		Raw:       raw,
		Denom:     denom,
		Formatted: value.StringFixed(displayDecimals) + " " + f.Symbol(denom),
	}, true
}

// Symbol resolves a denomination to its display symbol.
func (f *Formatter) Symbol(denom string) string {
	lower := strings.ToLower(denom)
	if lower == "" {
		return DefaultSymbol
	}
	for _, alias := range f.aliases {
		if strings.Contains(lower, alias.Match) {
			return alias.Symbol
		}
	}
	if strings.HasPrefix(lower, f.hrp+"1") {
		return UnknownTokenSymbol
	}
	return DefaultSymbol
}

// FormatMicro divides a base-unit integer by one million and renders 6 decimals.
func FormatMicro(raw string) (string, bool) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return value.Div(micro).StringFixed(displayDecimals), true
}

// FormatTokenUnits renders a denomination-less amount in generic token units.
func FormatTokenUnits(raw string) (string, bool) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return value.Div(micro).StringFixed(2) + " " + UnknownTokenSymbol, true
}

// SubMicro returns a - b for two 6-decimal strings.
func SubMicro(a, b string) (string, bool) {
	left, err := decimal.NewFromString(a)
	if err != nil {
		return "", false
	}
	right, err := decimal.NewFromString(b)
	if err != nil {
		return "", false
	}
	return left.Sub(right).StringFixed(displayDecimals), true
}

// SumMicro adds 6-decimal strings.
func SumMicro(values ...string) string {
	total := decimal.Zero
	for _, v := range values {
		d, err := decimal.NewFromString(v)
		if err != nil {
			continue
		}
		total = total.Add(d)
	}
	return total.StringFixed(displayDecimals)
}
