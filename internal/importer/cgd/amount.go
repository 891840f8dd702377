package cgd

import (
	"strings"

	"github.com/shopspring/decimal"
)

// thousands drops the grouping separators of European amounts: dots in
// Portuguese exports, plain and non-breaking spaces in French ones.
var thousands = strings.NewReplacer(".", "", " ", "", "\u00a0", "", "\u202f", "")

// parseEuropeanAmount parses "1.234,56" or "1 234,56" as 1234.56, rounded to cents.
func parseEuropeanAmount(s string) (decimal.Decimal, error) {
	clean := strings.Replace(thousands.Replace(s), ",", ".", 1)

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, err
	}

	return d.Round(2), nil
}
