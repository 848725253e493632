// Package strings provides normalization helpers for institution email rules.
package strings

import (
	"strings"
)

// DedupeAndTrimLower trims, lowercases and deduplicates values, dropping empty
// entries. Order of first occurrence is preserved.
//
//	DedupeAndTrimLower([]string{"  A@X.org ", "a@x.org", ""})
//	// []string{"a@x.org"}
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		normalized := strings.ToLower(strings.TrimSpace(v))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result
}

// NormalizeDomains is DedupeAndTrimLower for email domains: a leading "@" is
// dropped so "@Example.org" and "example.org" collapse to one entry.
func NormalizeDomains(values []string) []string {
	trimmed := make([]string, 0, len(values))
	for _, v := range values {
		trimmed = append(trimmed, strings.TrimPrefix(strings.TrimSpace(v), "@"))
	}
	return DedupeAndTrimLower(trimmed)
}
