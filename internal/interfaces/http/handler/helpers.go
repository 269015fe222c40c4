package handler

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// parseDecimal converts a JSON number literal to a decimal without a float64
// round trip, so quantities and costs keep every digit the client sent.
// An absent field parses as zero.
func parseDecimal(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(n.String())
}
