package domain

import (
	"strconv"
	"strings"
)

// ParseAmount extracts the leading rupee figure from strings such as
// "₹15,000/year" or "₹8,00,000 (IDV) + ₹15,00,000". It returns 0 when no digits are found.
func ParseAmount(s string) int64 {
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return 0
	}
	var b strings.Builder
scan:
	for _, r := range s[start:] {
		switch {
		case isDigit(r):
			b.WriteRune(r)
		case r == ',':
		default:
			break scan
		}
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
