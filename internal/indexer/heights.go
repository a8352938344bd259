package indexer

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"txScope/internal/ledger"
	"txScope/internal/model"
)

// ParseHeights parses comma or newline separated block heights. Blank, non-numeric and
// zero entries are skipped and returned separately; duplicates keep their first position.
func ParseHeights(inputs []string) ([]uint64, []string) {
	var heights []uint64
	var skipped []string
	seen := make(map[uint64]struct{})
	for _, input := range inputs {
		for _, field := range strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == '\n' || r == '\r' }) {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			h, err := strconv.ParseUint(field, 10, 64)
			if err != nil || h == 0 {
				skipped = append(skipped, field)
				continue
			}
			if _, ok := seen[h]; ok {
				continue
			}
			seen[h] = struct{}{}
			heights = append(heights, h)
		}
	}
	return heights, skipped
}

// ReadHeightsFile returns the raw contents of a heights file for ParseHeights.
func ReadHeightsFile(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read heights file: %w", err)
	}
	return []string{string(data)}, nil
}

// mentions reports whether a fetched record involves contract. The raw payload is checked
// first; RPC results may carry base64 attributes, so those are checked after decoding.
func mentions(rec model.RawRecord, contract string) bool {
	if contract == "" {
		return true
	}
	if bytes.Contains(rec.Payload, []byte(contract)) {
		return true
	}
	tx, err := ledger.DecodeRecord(rec)
	if err != nil {
		return false
	}
	for _, msg := range tx.Messages {
		if strings.EqualFold(msg.Contract, contract) {
			return true
		}
	}
	for _, ev := range tx.AllEvents() {
		for _, attr := range ev.Attributes {
			if strings.EqualFold(attr.Value, contract) {
				return true
			}
		}
	}
	return false
}
