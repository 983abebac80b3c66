// Package optimizer solves the constrained carrier-mix assignment:
// route assignment groups to carriers to minimize total spend subject
// to per-carrier minimum-volume commitments and earned-discount spend
// thresholds. Greedy assignment with deterministic iterative repair;
// single-threaded by design, correctness rests on a fixed carrier
// processing order, not on execution order.
package optimizer

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"carrier-cost/decision/rating"
)

// Constraint is a minimum shipment-count commitment for a carrier.
type Constraint struct {
	Carrier   string `json:"carrier"`
	MinVolume int    `json:"min_volume"`
}

// ConstraintStatus reports one constraint's outcome.
type ConstraintStatus struct {
	Constraint
	AssignedVolume int  `json:"assigned_volume"`
	Satisfied      bool `json:"satisfied"`
}

// Request is one optimizer run's input.
type Request struct {
	Groups      []rating.GroupCost
	Constraints []Constraint

	// RepairOrder fixes the carrier processing order during
	// constraint repair so one carrier's repair cannot nondeterministically
	// undo another's. Defaults to constraint carriers sorted by code.
	RepairOrder []string
}

// Result is the terminal state of an optimizer run. Immutable once
// produced.
type Result struct {
	RunID       uuid.UUID `json:"run_id"`
	EvaluatedAt time.Time `json:"evaluated_at"`

	Assignment map[rating.GroupKey]string `json:"assignment"` // group -> carrier

	TotalCost           decimal.Decimal            `json:"total_cost"`
	VolumeByCarrier     map[string]int             `json:"volume_by_carrier"`
	SpendByCarrier      map[string]decimal.Decimal `json:"spend_by_carrier"`
	QualifyingByCarrier map[string]decimal.Decimal `json:"qualifying_by_carrier"`

	Constraints []ConstraintStatus `json:"constraints"`

	// Feasible is false when the run could not honor every constraint;
	// Infeasibility names why. The cost figures are still reported but
	// must never be read as a valid constrained optimum.
	Feasible      bool   `json:"feasible"`
	Infeasibility string `json:"infeasibility,omitempty"`
}

// Optimize produces a cost-minimizing assignment of groups to
// carriers under the request's minimum-volume commitments.
func Optimize(req Request) *Result {
	res := &Result{
		RunID:       uuid.New(),
		EvaluatedAt: time.Now().UTC(),
		Assignment:  make(map[rating.GroupKey]string, len(req.Groups)),
		Feasible:    true,
	}

	totalVolume := 0
	for _, g := range req.Groups {
		totalVolume += g.Count
	}
	minSum := 0
	for _, c := range req.Constraints {
		minSum += c.MinVolume
	}
	if minSum > totalVolume {
		res.Feasible = false
		res.Infeasibility = fmt.Sprintf(
			"combined minimum commitments (%d) exceed total volume (%d)", minSum, totalVolume)
	}

	// Step 1: greedy. Cheapest serviceable carrier per group.
	assigned := make([]string, len(req.Groups))
	for i, g := range req.Groups {
		assigned[i] = cheapestCarrier(g)
	}

	// Steps 2-3: constraint check and repair in fixed carrier order.
	if res.Feasible {
		repair(req, assigned)
	}

	// Terminal accounting.
	res.VolumeByCarrier = make(map[string]int)
	res.SpendByCarrier = make(map[string]decimal.Decimal)
	res.QualifyingByCarrier = make(map[string]decimal.Decimal)
	for i, g := range req.Groups {
		carrier := assigned[i]
		if carrier == "" {
			continue // no serviceable carrier; surfaced by rating stats
		}
		cg := g.Carriers[carrier]
		res.Assignment[g.Key] = carrier
		res.VolumeByCarrier[carrier] += g.Count
		res.SpendByCarrier[carrier] = res.SpendByCarrier[carrier].Add(cg.Total)
		res.QualifyingByCarrier[carrier] = res.QualifyingByCarrier[carrier].Add(cg.Qualifying)
		res.TotalCost = res.TotalCost.Add(cg.Total)
	}

	for _, c := range req.Constraints {
		status := ConstraintStatus{
			Constraint:     c,
			AssignedVolume: res.VolumeByCarrier[c.Carrier],
		}
		status.Satisfied = status.AssignedVolume >= c.MinVolume
		if !status.Satisfied && res.Feasible {
			res.Feasible = false
			res.Infeasibility = fmt.Sprintf(
				"carrier %s volume %d below commitment %d after repair",
				c.Carrier, status.AssignedVolume, c.MinVolume)
		}
		res.Constraints = append(res.Constraints, status)
	}

	return res
}

func cheapestCarrier(g rating.GroupCost) string {
	best := ""
	var bestAvg decimal.Decimal
	codes := make([]string, 0, len(g.Carriers))
	for code := range g.Carriers {
		codes = append(codes, code)
	}
	sort.Strings(codes) // deterministic tie-breaking
	for _, code := range codes {
		avg := g.Carriers[code].Average(g.Count)
		if best == "" || avg.LessThan(bestAvg) {
			best, bestAvg = code, avg
		}
	}
	return best
}

// repair moves groups onto under-filled committed carriers, cheapest
// penalty first. Moved groups are locked, and once a carrier's minimum
// is met its whole allocation is locked too, before the next
// constrained carrier is processed.
func repair(req Request, assigned []string) {
	order := req.RepairOrder
	if len(order) == 0 {
		for _, c := range req.Constraints {
			order = append(order, c.Carrier)
		}
		sort.Strings(order)
	}
	minByCarrier := make(map[string]int, len(req.Constraints))
	for _, c := range req.Constraints {
		minByCarrier[c.Carrier] = c.MinVolume
	}

	locked := make([]bool, len(req.Groups))

	for _, target := range order {
		minVol, ok := minByCarrier[target]
		if !ok {
			continue
		}

		volume := 0
		for i, g := range req.Groups {
			if assigned[i] == target {
				volume += g.Count
			}
		}

		if volume < minVol {
			type candidate struct {
				idx     int
				penalty decimal.Decimal
			}
			var candidates []candidate
			for i, g := range req.Groups {
				if locked[i] || assigned[i] == target || assigned[i] == "" {
					continue
				}
				tc, ok := g.Carriers[target]
				if !ok {
					continue
				}
				cur := g.Carriers[assigned[i]]
				// Penalty of moving the whole group to the target
				// carrier, valued at average cost per shipment.
				perShipment := tc.Average(g.Count).Sub(cur.Average(g.Count))
				candidates = append(candidates, candidate{
					idx:     i,
					penalty: perShipment.Mul(decimal.NewFromInt(int64(g.Count))),
				})
			}
			sort.SliceStable(candidates, func(a, b int) bool {
				return candidates[a].penalty.LessThan(candidates[b].penalty)
			})

			for _, cand := range candidates {
				if volume >= minVol {
					break
				}
				assigned[cand.idx] = target
				locked[cand.idx] = true
				volume += req.Groups[cand.idx].Count
			}
		}

		// Lock the carrier's standing allocation so later repairs
		// cannot raid it back below its minimum.
		if volume >= minVol {
			for i := range req.Groups {
				if assigned[i] == target {
					locked[i] = true
				}
			}
		}
	}
}
