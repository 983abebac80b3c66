package ratecard

import (
	"github.com/shopspring/decimal"

	"carrier-cost/decision/shipment"
)

// BaseRate is a resolved rate-table lookup.
type BaseRate struct {
	Price    decimal.Decimal `json:"price"`
	Zone     string          `json:"zone"`
	Weight   float64         `json:"weight"` // capped, post-floor weight used for the lookup
	Oversize bool            `json:"oversize,omitempty"`
}

// Lookup resolves the base rate for a zone and billable weight.
// Weight is capped at the card's serviceable maximum. When the card
// defines an oversize override and length+girth strictly exceeds its
// trigger, the bracket walk is bypassed for the flat oversize rate.
//
// Returns false when the card cannot price the shipment at all (zone
// missing from the table, or weight beyond every bracket): the carrier
// is unserviceable for this shipment, which is absence, not an error.
func (c *Card) Lookup(d shipment.Dims, zone string, billableWeight float64) (BaseRate, bool) {
	if c.Oversize != nil && d.LengthPlusGirth > c.Oversize.LengthPlusGirthOver {
		price, ok := c.Oversize.Prices[zone]
		if !ok {
			return BaseRate{}, false
		}
		return BaseRate{Price: price, Zone: zone, Weight: billableWeight, Oversize: true}, true
	}

	w := billableWeight
	if c.MaxWeight > 0 && w > c.MaxWeight {
		w = c.MaxWeight
	}

	for _, b := range c.Brackets {
		if w > b.Lower && w <= b.Upper {
			price, ok := b.Prices[zone]
			if !ok {
				return BaseRate{}, false
			}
			return BaseRate{Price: price, Zone: zone, Weight: w}, true
		}
	}
	return BaseRate{}, false
}
