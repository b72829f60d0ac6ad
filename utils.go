package stockd

import (
	"strings"
)

// NormalizeSKU canonicalizes a stock keeping unit identifier.
// SKUs are upper-cased and whitespace-trimmed, e.g. "RED-CHAIR".
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

// ValidSKU reports whether a SKU is well-formed: non-empty, no spaces,
// only letters, digits and dashes.
func ValidSKU(sku string) bool {
	if sku == "" {
		return false
	}
	for i := 0; i < len(sku); i++ {
		c := sku[i]
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return false
		}
	}
	return true
}

// ValidOrderLine reports whether a line can be submitted for allocation.
func ValidOrderLine(line OrderLine) bool {
	return line.OrderID != "" && ValidSKU(line.SKU) && line.Qty > 0
}
