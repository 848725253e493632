// Package attrs reads values back out of slog-style key/value slices so that
// the same attribute list can feed both a log line and an audit event.
package attrs

import "fmt"

// ExtractString returns the value for key from a [key1, value1, key2, value2, ...]
// slice. Values implementing fmt.Stringer (typed IDs, enums) are rendered with
// String. Returns "" if the key is absent.
func ExtractString(attrs []any, key string) string {
	for i := 0; i < len(attrs)-1; i += 2 {
		k, ok := attrs[i].(string)
		if !ok || k != key {
			continue
		}
		switch v := attrs[i+1].(type) {
		case string:
			return v
		case fmt.Stringer:
			return v.String()
		}
	}
	return ""
}
