package pricing

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var rupeePrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatRupees renders n with a rupee sign and locale digit grouping.
func FormatRupees(n int64) string {
	return rupeePrinter.Sprintf("₹%d", n)
}
