// Package carriers bundles sample carrier contracts so the CLI and
// tests run without external rate-card files. Figures are
// representative, not any carrier's actual contract.
package carriers

import (
	"github.com/shopspring/decimal"

	"carrier-cost/decision/ratecard"
)

// All returns every bundled carrier contract.
func All() []*ratecard.Carrier {
	return []*ratecard.Carrier{HDX(), PSL()}
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func ptr(v float64) *float64 { return &v }

func prices(in map[string]string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for zone, p := range in {
		out[zone] = dec(p)
	}
	return out
}

// bracket builds one rate-table row with per-zone prices.
func bracket(lower, upper float64, prices map[string]string) ratecard.WeightBracket {
	b := ratecard.WeightBracket{
		Lower:  lower,
		Upper:  upper,
		Prices: make(map[string]decimal.Decimal, len(prices)),
	}
	for zone, p := range prices {
		b.Prices[zone] = dec(p)
	}
	return b
}
