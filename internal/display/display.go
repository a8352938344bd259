// Package display renders records for terminal output.
package display

import (
	"strings"

	"github.com/shopspring/decimal"

	"txScope/internal/addressbook"
	"txScope/internal/model"
)

// Formatter renders addresses, amounts and tags. A nil Book shows raw values.
type Formatter struct {
	Book *addressbook.Book
}

// Short returns "terra1p...abcd" for addresses longer than 12 characters.
func Short(addr string) string {
	if len(addr) < 12 {
		return addr
	}
	return addr[:7] + "..." + addr[len(addr)-4:]
}

// ShortHash returns "ABCDEF...1234".
func ShortHash(hash string) string {
	if len(hash) < 12 {
		return hash
	}
	return hash[:6] + "..." + hash[len(hash)-4:]
}

// Address renders an address as "label (short)" when the book knows it.
func (f Formatter) Address(addr *string) string {
	if addr == nil || *addr == "" || *addr == "N/A" {
		return "-"
	}
	short := Short(*addr)
	if e, ok := f.Book.Lookup(*addr); ok && e.Label() != "" {
		return e.Label() + " (" + short + ")"
	}
	return short
}

// Amount trims trailing zeros from "<number> <SYMBOL>" and appends the token name
// when the book has one that differs from the symbol.
func (f Formatter) Amount(formatted *string) string {
	if formatted == nil || *formatted == "" {
		return "-"
	}
	parts := strings.Fields(*formatted)
	if len(parts) != 2 {
		return *formatted
	}
	number, err := decimal.NewFromString(parts[0])
	if err != nil {
		return *formatted
	}
	out := number.String() + " " + parts[1]
	if tok, ok := f.Book.TokenBySymbol(parts[1]); ok && tok.Name != "" && tok.Name != parts[1] {
		out += " (" + tok.Name + ")"
	}
	return out
}

// EventType title-cases a tag: BBL_SALE becomes "Bbl Sale".
func EventType(tag model.EventTag) string {
	words := strings.Split(strings.ToLower(string(tag)), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
