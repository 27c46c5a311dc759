package commands

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer groups thousands in counts and amounts.
var printer = message.NewPrinter(language.English)

func formatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

func formatCurrency(v float64) string {
	return printer.Sprintf("$%.2f", v)
}
