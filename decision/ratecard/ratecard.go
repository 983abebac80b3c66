// Package ratecard models a carrier contract's static reference data:
// zone tables, weight-bracket rate tables, dimensional-weight terms,
// fuel, discount tiers, and the contract's surcharge rule set. Cards
// are loaded once per run and treated as immutable.
package ratecard

import (
	"github.com/shopspring/decimal"

	"carrier-cost/decision/surcharge"
)

// FuelBase selects which cost components feed the fuel percentage.
// Contracts differ here and the choice is a frequent source of invoice
// mismatch, so it is pinned per card and tested explicitly.
type FuelBase string

const (
	// FuelOnRated applies fuel to the base rate plus deterministic
	// (non-allocated) surcharges.
	FuelOnRated FuelBase = "rated"
	// FuelOnSubtotal applies fuel to the full subtotal.
	FuelOnSubtotal FuelBase = "subtotal"
	// FuelOnBase applies fuel to the base rate only.
	FuelOnBase FuelBase = "base"
)

// QualifyingSpend selects the cost figure a carrier counts toward an
// earned-discount threshold.
type QualifyingSpend string

const (
	// QualifyUndiscountedBase counts the undiscounted-equivalent base
	// rate (stored base divided by the baked tier factor).
	QualifyUndiscountedBase QualifyingSpend = "undiscounted_base"
	// QualifySubtotal counts the subtotal as rated.
	QualifySubtotal QualifyingSpend = "subtotal"
)

// WeightBracket is one row of a weight-by-zone rate table. Bounds are
// lower-exclusive, upper-inclusive: Lower < w <= Upper.
type WeightBracket struct {
	Lower  float64                    `json:"lower"`
	Upper  float64                    `json:"upper"`
	Prices map[string]decimal.Decimal `json:"prices"` // zone -> price
}

// OversizeRate is a full-override path: when the trigger condition
// holds, the weight-bracket lookup is bypassed for a flat zone-indexed
// rate.
type OversizeRate struct {
	// LengthPlusGirthOver triggers the override when length+girth
	// strictly exceeds this value (inches).
	LengthPlusGirthOver float64                    `json:"length_plus_girth_over"`
	Prices              map[string]decimal.Decimal `json:"prices"` // zone -> flat rate
}

// DiscountTier is one earned-discount level of a carrier contract.
type DiscountTier struct {
	Name string `json:"name"`
	// Threshold is the qualifying annual spend that unlocks the tier.
	Threshold decimal.Decimal `json:"threshold"`
	// Discounts are the contractual discount percentages stacked at
	// this tier; factor = 1 - sum(Discounts).
	Discounts []float64 `json:"discounts"`
}

// Factor is the multiplicative rate factor at this tier.
func (t DiscountTier) Factor() float64 {
	sum := 0.0
	for _, d := range t.Discounts {
		sum += d
	}
	return 1 - sum
}

// Card is one carrier service's rate card. Carriers with multiple
// services (e.g. a home-delivery and an economy product) carry one
// Card per service under the same Carrier code.
type Card struct {
	Carrier string `json:"carrier"`
	Service string `json:"service"`
	Version string `json:"version"`

	Zones    *ZoneTable      `json:"-"`
	Brackets []WeightBracket `json:"brackets"`
	Oversize *OversizeRate   `json:"oversize,omitempty"`

	// DimDivisor converts cubic inches to dimensional pounds.
	DimDivisor float64 `json:"dim_divisor"`
	// DimThreshold gates dim weight: dimensional weight is considered
	// only when volume strictly exceeds it. Nil means always compare.
	DimThreshold *float64 `json:"dim_threshold,omitempty"`
	// MaxWeight is the heaviest serviceable billable weight. Lookups
	// cap at it; genuine over-limit penalties are ordinary surcharge
	// rules, not errors.
	MaxWeight float64 `json:"max_weight"`

	Rules []surcharge.Rule `json:"rules"`

	FuelRate float64  `json:"fuel_rate"` // 0 when the contract has no fuel surcharge
	FuelBase FuelBase `json:"fuel_base"`

	// BakedTier names the discount tier already netted into Brackets.
	// Exposed as an explicit versioned constant because contracts are
	// ambiguous about whether stored rates are gross or net; validate
	// against a known invoice sample before trusting derived
	// undiscounted figures.
	BakedTier  string          `json:"baked_tier"`
	Tiers      []DiscountTier  `json:"tiers,omitempty"`
	Qualifying QualifyingSpend `json:"qualifying"`
}

// TierByName returns the named tier.
func (c *Card) TierByName(name string) (DiscountTier, bool) {
	for _, t := range c.Tiers {
		if t.Name == name {
			return t, true
		}
	}
	return DiscountTier{}, false
}

// BakedFactor is the rate factor already netted into the stored
// brackets. Cards without tier data are taken at face value.
func (c *Card) BakedFactor() float64 {
	if t, ok := c.TierByName(c.BakedTier); ok {
		return t.Factor()
	}
	return 1
}

// Carrier groups the rate cards of one carrier contract with its
// volume-commitment terms.
type Carrier struct {
	Code  string  `json:"code"`
	Cards []*Card `json:"cards"`
}
