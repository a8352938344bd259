// Package extract pulls individual fields out of a canonical transaction.
// Every extractor is fault isolated: a panic inside one yields its zero value.
package extract

import (
	"regexp"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/shopspring/decimal"

	"txScope/internal/amount"
	"txScope/internal/model"
)

// NoiseThreshold is the base-unit amount a coin movement must exceed to count as a price.
const NoiseThreshold = 100000

// UnknownSender is returned when a transaction has no messages.
const UnknownSender = "Unknown"

var (
	coinPattern    = regexp.MustCompile(`^(\d+)(.+)$`)
	lunaPattern    = regexp.MustCompile(`^(\d+)uluna$`)
	numericPattern = regexp.MustCompile(`^\d+$`)
	noiseFloor     = decimal.NewFromInt(NoiseThreshold)
)

// FailureFunc is notified when an extractor recovers from a panic.
type FailureFunc func(field string, recovered interface{})

type Extractor struct {
	roles     model.ContractRoles
	formatter *amount.Formatter
	hrp       string
	onFailure FailureFunc
}

func New(roles model.ContractRoles, formatter *amount.Formatter, hrp string) *Extractor {
	if hrp == "" {
		hrp = "terra"
	}
	return &Extractor{roles: roles, formatter: formatter, hrp: hrp}
}

// OnFailure registers a hook for recovered extraction failures.
func (e *Extractor) OnFailure(fn FailureFunc) { e.onFailure = fn }

func guard[T any](e *Extractor, field string, fn func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out = zero
			if e.onFailure != nil {
				e.onFailure(field, r)
			}
		}
	}()
	return fn()
}

func (e *Extractor) format(raw, denom string) *model.Amount {
	if e.formatter == nil {
		return nil
	}
	amt, ok := e.formatter.Format(raw, denom)
	if !ok {
		return nil
	}
	return &amt
}

// coinAboveNoise parses "<digits><denom>" and applies the noise threshold.
// Only the first coin of a comma-separated list is considered.
func coinAboveNoise(value string) (string, string, bool) {
	if i := strings.IndexByte(value, ','); i >= 0 {
		value = value[:i]
	}
	m := coinPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return "", "", false
	}
	n, err := decimal.NewFromString(m[1])
	if err != nil || !n.GreaterThan(noiseFloor) {
		return "", "", false
	}
	return m[1], m[2], true
}

// paymentFromEvents returns the first coin_spent or transfer amount above the noise threshold.
func (e *Extractor) paymentFromEvents(events []model.Event) *model.Amount {
	for _, ev := range events {
		if ev.Type != "coin_spent" && ev.Type != "transfer" {
			continue
		}
		value, ok := ev.Attr("amount")
		if !ok || value == "" {
			continue
		}
		if raw, denom, ok := coinAboveNoise(value); ok {
			if amt := e.format(raw, denom); amt != nil {
				return amt
			}
		}
	}
	return nil
}

// ValidAddress reports a bech32 address with the configured prefix.
func (e *Extractor) ValidAddress(addr string) bool {
	hrp, _, err := bech32.DecodeNoLimit(addr)
	if err != nil {
		return false
	}
	return strings.EqualFold(hrp, e.hrp)
}

func isWasm(eventType string) bool {
	return eventType == "wasm" || strings.HasPrefix(eventType, "wasm-")
}
