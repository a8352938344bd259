// Package addressbook resolves on-chain addresses to human names for display.
package addressbook

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Entry describes one known address.
type Entry struct {
	Name   string `json:"name"`
	Handle string `json:"handle"`
	Type   string `json:"type"`
	Logo   string `json:"logo"`
}

// Label returns the handle, or the name when there is no handle.
func (e Entry) Label() string {
	if e.Handle != "" {
		return e.Handle
	}
	return e.Name
}

// Token describes a token keyed by its denom or contract address.
type Token struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Logo   string `json:"logo"`
}

type sections struct {
	Members    map[string]Entry `json:"members"`
	DAOs       map[string]Entry `json:"daos"`
	Contracts  map[string]Entry `json:"contracts"`
	Validators map[string]Entry `json:"validators"`
	Platforms  map[string]Entry `json:"platforms"`
}

type document struct {
	sections
	Tokens         map[string]Token `json:"tokens"`
	KnownAddresses *sections        `json:"known_addresses"`
}

// Book is a read-only address book. The zero value is empty.
type Book struct {
	entries map[string]Entry
	tokens  map[string]Token
	counts  map[string]int
}

// Load reads an address book file. Sections may sit at the root or under known_addresses;
// members and tokens are always read from the root.
func Load(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read address book: %w", err)
	}
	return Parse(data)
}

// Parse decodes an address book document.
func Parse(data []byte) (*Book, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse address book: %w", err)
	}

	s := doc.sections
	if doc.KnownAddresses != nil {
		members := s.Members
		s = *doc.KnownAddresses
		if len(s.Members) == 0 {
			s.Members = members
		}
	}

	b := &Book{
		entries: make(map[string]Entry),
		tokens:  doc.Tokens,
		counts:  make(map[string]int),
	}
	// Earlier sections win when an address appears twice.
	for _, sec := range []struct {
		name    string
		entries map[string]Entry
	}{
		{"members", s.Members},
		{"daos", s.DAOs},
		{"contracts", s.Contracts},
		{"validators", s.Validators},
		{"platforms", s.Platforms},
	} {
		b.counts[sec.name] = len(sec.entries)
		for addr, entry := range sec.entries {
			key := strings.ToLower(addr)
			if _, ok := b.entries[key]; !ok {
				b.entries[key] = entry
			}
		}
	}
	b.counts["tokens"] = len(doc.Tokens)
	return b, nil
}

// Lookup finds an address, ignoring case.
func (b *Book) Lookup(address string) (Entry, bool) {
	if b == nil || address == "" {
		return Entry{}, false
	}
	e, ok := b.entries[strings.ToLower(address)]
	return e, ok
}

// TokenBySymbol finds a token by its display symbol.
func (b *Book) TokenBySymbol(symbol string) (Token, bool) {
	if b == nil || symbol == "" {
		return Token{}, false
	}
	for _, tok := range b.tokens {
		if tok.Symbol == symbol {
			return tok, true
		}
	}
	return Token{}, false
}

// Counts returns the number of entries per section.
func (b *Book) Counts() map[string]int {
	if b == nil {
		return nil
	}
	out := make(map[string]int, len(b.counts))
	for k, v := range b.counts {
		out[k] = v
	}
	return out
}
