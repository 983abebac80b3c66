package optimizer

import (
	"github.com/shopspring/decimal"

	"carrier-cost/decision/ratecard"
	"carrier-cost/decision/rating"
)

// AdjustService recomputes a service's cost under a target discount
// tier factor. The delta applies to the base-rate component only,
// grossed up by the fuel rate, because fuel is charged on the
// discounted base:
//
//	delta = base × (target/baked − 1) × (1 + fuelRate)
//
// The returned ServiceCost carries the adjusted base and factor so a
// further adjustment (including back to the original tier) composes
// exactly.
func AdjustService(sc rating.ServiceCost, targetFactor float64) rating.ServiceCost {
	if sc.BakedFactor == 0 || targetFactor == sc.BakedFactor {
		return sc
	}
	ratio := decimal.NewFromFloat(targetFactor).Div(decimal.NewFromFloat(sc.BakedFactor))
	delta := sc.Base.
		Mul(ratio.Sub(decimal.NewFromInt(1))).
		Mul(decimal.NewFromFloat(1 + sc.FuelRate))

	adjusted := sc
	adjusted.Total = sc.Total.Add(delta)
	adjusted.Base = sc.Base.Mul(ratio)
	adjusted.BakedFactor = targetFactor

	// Undiscounted-base qualifying is tier-invariant (base and factor
	// scale together); subtotal qualifying moves with the base-rate
	// component, without the fuel gross-up.
	if sc.QualifyingBasis == ratecard.QualifySubtotal {
		adjusted.Qualifying = sc.Qualifying.Add(sc.Base.Mul(ratio.Sub(decimal.NewFromInt(1))))
	}
	return adjusted
}

// AdjustCarrierCost recomputes every service of a carrier's price for
// one shipment under the target tier and re-selects the cheapest.
// Each service's delta uses that service's own base component;
// borrowing one service's delta for another silently corrupts
// shipments near the cost crossover between services, so selection is
// always re-run after adjustment.
func AdjustCarrierCost(cc rating.CarrierCost, targetFactor float64) rating.CarrierCost {
	adjusted := rating.CarrierCost{Carrier: cc.Carrier}
	for _, sc := range cc.Services {
		adjusted.Services = append(adjusted.Services, AdjustService(sc, targetFactor))
	}
	best := adjusted.Services[0]
	for _, sc := range adjusted.Services[1:] {
		if sc.Total.LessThan(best.Total) {
			best = sc
		}
	}
	adjusted.Selected = best
	return adjusted
}

// AdjustGroup recomputes a carrier's group aggregate under the target
// tier, shipment by shipment so service selection can flip where the
// adjustment moves a shipment across the service crossover.
func AdjustGroup(cg *rating.CarrierGroupCost, targetFactor float64) (total, qualifying decimal.Decimal) {
	for _, cc := range cg.Shipments {
		adj := AdjustCarrierCost(cc, targetFactor)
		total = total.Add(adj.Selected.Total)
		qualifying = qualifying.Add(adj.Selected.Qualifying)
	}
	return total, qualifying
}
