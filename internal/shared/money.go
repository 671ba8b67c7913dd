package shared

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders a monetary or quantity value with grouped thousands
// and two decimals for user-facing messages.
func FormatAmount(v float64) string {
	return amountPrinter.Sprintf("%.2f", v)
}
