package cache

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// maxKeyLength caps the human-readable form of generated keys. Longer keys
// collapse to a fixed-width hash so pathological parameter sets cannot bloat
// the key space.
const maxKeyLength = 250

// TokenKey returns the cache key for a Solana token price entry.
//
// Example: sol:So11111111111111111111111111111111111111112
func TokenKey(mint string) string {
	return "sol:" + strings.TrimSpace(mint)
}

// ReportKey generates a deterministic cache key for a report from its type
// and normalized parameters. Parameters are sorted so equivalent queries map
// to the same key regardless of argument order.
//
// Example: report:pnl:days=30:wallet=Abc123
func ReportKey(reportType string, params map[string]string) string {
	parts := []string{"report", normalizeKeyPart(reportType)}

	if len(params) > 0 {
		names := make([]string, 0, len(params))
		for name := range params {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", normalizeKeyPart(name), normalizeKeyPart(params[name])))
		}
	}

	key := strings.Join(parts, ":")
	if len(key) > maxKeyLength {
		return fmt.Sprintf("report:%s:%016x", normalizeKeyPart(reportType), xxhash.Sum64String(key))
	}
	return key
}

// normalizeKeyPart strips the characters that would break the key's
// colon-separated structure.
func normalizeKeyPart(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	return strings.ReplaceAll(s, ":", "_")
}
