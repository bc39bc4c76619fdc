package i18n

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// currencySymbols maps ISO 4217 codes to display symbols
var currencySymbols = map[string]struct {
	symbol string
	prefix bool // true = "$12.50", false = "12.50 CHF"
}{
	"USD": {"$", true},
	"EUR": {"€", true},
	"GBP": {"£", true},
	"JPY": {"¥", true},
	"CHF": {"CHF", false},
	"SEK": {"kr", false},
	"NOK": {"kr", false},
	"DKK": {"kr.", false},
	"PLN": {"zł", false},
	"CZK": {"Kč", false},
	"TRY": {"₺", true},
	"CAD": {"CA$", true},
	"AUD": {"A$", true},
}

// FormatAmount renders amount with two decimals and the currency symbol.
//
//	FormatAmount(decimal.RequireFromString("15.5"), "USD") → "$15.50"
//	FormatAmount(decimal.RequireFromString("150"), "CHF")  → "150.00 CHF"
//	FormatAmount(decimal.RequireFromString("1"), "XYZ")    → "1.00 XYZ"
func FormatAmount(amount decimal.Decimal, currencyCode string) string {
	value := amount.StringFixed(2)

	info, ok := currencySymbols[currencyCode]
	if !ok {
		return fmt.Sprintf("%s %s", value, currencyCode)
	}
	if info.prefix {
		if amount.IsNegative() {
			return fmt.Sprintf("-%s%s", info.symbol, amount.Abs().StringFixed(2))
		}
		return info.symbol + value
	}
	return fmt.Sprintf("%s %s", value, info.symbol)
}
