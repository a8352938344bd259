package ledger

import (
	"encoding/base64"
	"unicode"
	"unicode/utf8"
)

// needsAttributeDecoding reports whether event attributes use the pre-0.37
// CometBFT base64 encoding. Every key must decode to printable text.
func needsAttributeDecoding(events []wireEvent) bool {
	seen := false
	for _, ev := range events {
		for _, attr := range ev.Attributes {
			if _, ok := decodePrintable(string(attr.Key)); !ok {
				return false
			}
			seen = true
		}
	}
	return seen
}

func decodeAttributes(events []wireEvent) []wireEvent {
	out := make([]wireEvent, 0, len(events))
	for _, ev := range events {
		attrs := make([]wireAttribute, 0, len(ev.Attributes))
		for _, attr := range ev.Attributes {
			key, _ := decodePrintable(string(attr.Key))
			value, ok := decodePrintable(string(attr.Value))
			if !ok {
				value = string(attr.Value)
			}
			attrs = append(attrs, wireAttribute{Key: flexString(key), Value: flexString(value)})
		}
		out = append(out, wireEvent{Type: ev.Type, Attributes: attrs})
	}
	return out
}

func decodePrintable(s string) (string, bool) {
	if s == "" {
		return "", true
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil || !utf8.Valid(data) {
		return "", false
	}
	text := string(data)
	for _, r := range text {
		if !unicode.IsPrint(r) {
			return "", false
		}
	}
	return text, true
}
