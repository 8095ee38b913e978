// Package consolidation reconciles the ERP order export with the carrier
// logistics export into one consolidated record per order, classifies each
// order into a pipeline phase and evaluates SLA compliance in business time.
package consolidation

import "strings"

// NormalizeID canonicalizes an order identifier for cross-system comparison:
// digits only, leading zeros stripped. When stripping zeros leaves nothing
// (an all-zeros id), the digit string is kept as is. Total over any input.
func NormalizeID(raw string) string {
	s := strings.TrimSpace(raw)
	var digits strings.Builder
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			digits.WriteRune(ch)
		}
	}
	onlyNumbers := digits.String()
	trimmed := strings.TrimLeft(onlyNumbers, "0")
	if trimmed == "" {
		return onlyNumbers
	}
	return trimmed
}

// NormalizeName canonicalizes a person name for route lookups. The published
// route sheet decorates names with "*" markers.
func NormalizeName(raw string) string {
	return strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(raw, "*", "")))
}
