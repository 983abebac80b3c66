package optimizer

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"carrier-cost/decision/rating"
)

// CutoffRoute expresses routing as two weight cutoffs: groups at or
// under Low route to the low carrier, over Low up to High to the mid
// carrier, and the rest to the high carrier.
type CutoffRoute struct {
	LowCarrier  string `json:"low_carrier"`
	MidCarrier  string `json:"mid_carrier"`
	HighCarrier string `json:"high_carrier"`
}

// Threshold is a minimum-spend requirement that unlocks a discount
// tier for a carrier: qualifying spend routed to Carrier must reach
// MinQualifying for the carrier to earn TargetFactor.
type Threshold struct {
	Carrier       string          `json:"carrier"`
	MinQualifying decimal.Decimal `json:"min_qualifying"`
	TargetFactor  float64         `json:"target_factor"`
}

// CutoffRequest is a cutoff grid-search input.
type CutoffRequest struct {
	Groups    []rating.GroupCost
	Route     CutoffRoute
	Threshold *Threshold

	// MaxIterations caps evaluated cutoff pairs for bounded-time
	// execution. 0 means no cap.
	MaxIterations int
}

// CutoffPlan is one evaluated cutoff combination.
type CutoffPlan struct {
	Low        float64         `json:"low"`
	High       float64         `json:"high"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	Qualifying decimal.Decimal `json:"qualifying"` // spend on the threshold carrier
}

// CutoffResult holds the cheapest unconstrained combination and,
// separately, the cheapest combination that clears the threshold.
// Qualified is nil when no combination in the searched space clears
// it; callers must treat that as explicit infeasibility, never fall
// back to Best as if the threshold held.
type CutoffResult struct {
	Best       *CutoffPlan `json:"best"`
	Qualified  *CutoffPlan `json:"qualified,omitempty"`
	Iterations int         `json:"iterations"`
	Capped     bool        `json:"capped"`
}

// SearchCutoffs brute-forces the bounded 2D space of cutoff pairs
// (low <= high) over the whole-pound weights present in the groups.
// For each pair it computes the total cost and the qualifying spend
// routed to the threshold carrier; threshold-clearing totals are
// evaluated at the earned target tier via the what-if adjuster, since
// clearing the threshold is what changes the carrier's rates.
func SearchCutoffs(req CutoffRequest) *CutoffResult {
	cutpoints := weightCutpoints(req.Groups)
	res := &CutoffResult{}

	for _, low := range cutpoints {
		for _, high := range cutpoints {
			if high < low {
				continue
			}
			if req.MaxIterations > 0 && res.Iterations >= req.MaxIterations {
				res.Capped = true
				return res
			}
			res.Iterations++

			plan := evalPlan(req, low, high)
			if res.Best == nil || plan.TotalCost.LessThan(res.Best.TotalCost) {
				p := plan
				res.Best = &p
			}
			if req.Threshold != nil && plan.Qualifying.GreaterThanOrEqual(req.Threshold.MinQualifying) {
				earned := evalEarnedPlan(req, low, high)
				if res.Qualified == nil || earned.TotalCost.LessThan(res.Qualified.TotalCost) {
					p := earned
					res.Qualified = &p
				}
			}
		}
	}
	return res
}

func evalPlan(req CutoffRequest, low, high float64) CutoffPlan {
	plan := CutoffPlan{Low: low, High: high}
	for _, g := range req.Groups {
		carrier := routeCarrier(req.Route, g, low, high)
		if carrier == "" {
			continue
		}
		cg := g.Carriers[carrier]
		plan.TotalCost = plan.TotalCost.Add(cg.Total)
		if req.Threshold != nil && carrier == req.Threshold.Carrier {
			plan.Qualifying = plan.Qualifying.Add(cg.Qualifying)
		}
	}
	return plan
}

// evalEarnedPlan prices the same routing with the threshold carrier's
// groups re-costed at the earned target tier.
func evalEarnedPlan(req CutoffRequest, low, high float64) CutoffPlan {
	plan := CutoffPlan{Low: low, High: high}
	for _, g := range req.Groups {
		carrier := routeCarrier(req.Route, g, low, high)
		if carrier == "" {
			continue
		}
		cg := g.Carriers[carrier]
		if carrier == req.Threshold.Carrier {
			total, qualifying := AdjustGroup(cg, req.Threshold.TargetFactor)
			plan.TotalCost = plan.TotalCost.Add(total)
			plan.Qualifying = plan.Qualifying.Add(qualifying)
			continue
		}
		plan.TotalCost = plan.TotalCost.Add(cg.Total)
	}
	return plan
}

// routeCarrier applies the cutoff rule, degrading to the cheapest
// candidate when the routed carrier cannot service the group.
func routeCarrier(route CutoffRoute, g rating.GroupCost, low, high float64) string {
	var want string
	switch {
	case g.Key.WeightLb <= low:
		want = route.LowCarrier
	case g.Key.WeightLb <= high:
		want = route.MidCarrier
	default:
		want = route.HighCarrier
	}
	if _, ok := g.Carriers[want]; ok {
		return want
	}
	return cheapestCarrier(g)
}

func weightCutpoints(groups []rating.GroupCost) []float64 {
	seen := make(map[float64]bool)
	for _, g := range groups {
		seen[g.Key.WeightLb] = true
	}
	points := make([]float64, 0, len(seen)+1)
	points = append(points, 0) // route-nothing-low boundary
	for w := range seen {
		points = append(points, math.Ceil(w))
	}
	sort.Float64s(points)
	// De-duplicate after ceiling.
	out := points[:0]
	for i, p := range points {
		if i == 0 || p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}
