package ratecard

import (
	"math"

	"carrier-cost/decision/shipment"
)

// DimWeight computes the dimensional weight for a volume under this
// card's divisor, rounded to 1 decimal.
func (c *Card) DimWeight(volume float64) float64 {
	if c.DimDivisor <= 0 {
		return 0
	}
	return shipment.Round1(volume / c.DimDivisor)
}

// BillableWeight combines actual and dimensional weight. Dimensional
// weight applies only when the volume strictly exceeds the card's
// threshold; cards without a threshold always compare.
func (c *Card) BillableWeight(d shipment.Dims, actualWeight float64) float64 {
	if c.DimThreshold != nil && d.Volume <= *c.DimThreshold {
		return actualWeight
	}
	return math.Max(actualWeight, c.DimWeight(d.Volume))
}

// ApplyFloor raises a billable weight to a surcharge-declared minimum.
// Rate lookup always uses the post-floor weight.
func ApplyFloor(billable, floor float64) float64 {
	return math.Max(billable, floor)
}
