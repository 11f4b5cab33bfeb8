package normalize

import "github.com/shopspring/decimal"

var poundsPerTon = decimal.NewFromInt(2000)

// ResolveTons returns the authoritative mass in tons. A positive tons value
// always wins; pounds is only a fallback unit, converted and rounded to four
// decimal places. Anything else resolves to zero.
func ResolveTons(tons, lbs decimal.Decimal) decimal.Decimal {
	if tons.IsPositive() {
		return tons
	}
	if lbs.IsPositive() {
		return lbs.Div(poundsPerTon).Round(4)
	}
	return decimal.Zero
}
