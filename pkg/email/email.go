// Package email normalizes contact addresses for institutional matching.
package email

import (
	"net/mail"
	"strings"
)

// Normalize trims and lowercases an address and checks that it is a bare
// addr-spec (no display name). Returns false for unparseable input.
func Normalize(address string) (string, bool) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return "", false
	}
	parsed, err := mail.ParseAddress(trimmed)
	if err != nil || parsed.Name != "" || parsed.Address != trimmed {
		return "", false
	}
	at := strings.LastIndexByte(parsed.Address, '@')
	if at <= 0 || at == len(parsed.Address)-1 {
		return "", false
	}
	return strings.ToLower(parsed.Address), true
}

// Domain returns the lowercased domain of a valid address.
func Domain(address string) (string, bool) {
	normalized, ok := Normalize(address)
	if !ok {
		return "", false
	}
	return normalized[strings.LastIndexByte(normalized, '@')+1:], true
}
