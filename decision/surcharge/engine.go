package surcharge

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Charge is one resolved surcharge line.
type Charge struct {
	RuleID string          `json:"rule_id"`
	Amount decimal.Decimal `json:"amount"`
	// Allocated marks expected-value charges applied at a fixed rate
	// to every shipment rather than per observed trigger.
	Allocated bool `json:"allocated,omitempty"`
	// Demand marks pass-2 charges layered on another rule's outcome
	// (seasonal demand surcharges). Some fuel bases exclude them.
	Demand bool `json:"demand,omitempty"`
}

// Outcome is the result of evaluating a rule set against one shipment.
type Outcome struct {
	Charges   []Charge        `json:"charges"`
	Triggered map[string]bool `json:"triggered"`
	// WeightFloor is the highest billable-weight floor declared by any
	// triggered rule, 0 when none. The caller must re-apply it before
	// rate lookup.
	WeightFloor float64 `json:"weight_floor,omitempty"`
}

// Total sums all resolved charges.
func (o Outcome) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, c := range o.Charges {
		sum = sum.Add(c.Amount)
	}
	return sum
}

// Engine interprets a carrier's ordered rule set.
type Engine struct {
	independent []Rule
	dependent   []Rule
	allocation  []Rule
	// Exclusivity groups split by pass so dependent members keep group
	// semantics; both maps hold members in ascending priority.
	groups    map[string][]Rule
	depGroups map[string][]Rule
}

// NewEngine splits the rule set into evaluation phases. Rule order
// within an exclusivity group is decided by Priority, everything else
// preserves contract order.
func NewEngine(rules []Rule) *Engine {
	e := &Engine{
		groups:    make(map[string][]Rule),
		depGroups: make(map[string][]Rule),
	}
	for _, r := range rules {
		switch {
		case r.IsAllocation():
			e.allocation = append(e.allocation, r)
		case r.IsDependent() && r.Group != "":
			e.depGroups[r.Group] = append(e.depGroups[r.Group], r)
		case r.IsDependent():
			e.dependent = append(e.dependent, r)
		case r.Group != "":
			e.groups[r.Group] = append(e.groups[r.Group], r)
		default:
			e.independent = append(e.independent, r)
		}
	}
	sortByPriority(e.groups)
	sortByPriority(e.depGroups)
	return e
}

func sortByPriority(groups map[string][]Rule) {
	for g := range groups {
		members := groups[g]
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Priority < members[j].Priority
		})
		groups[g] = members
	}
}

// Evaluate resolves the rule set against one shipment.
//
// Pass 1 evaluates every independent rule. Within an exclusivity group
// candidates are tried in ascending priority order and the first match
// wins; remaining members are forced false for this shipment. Pass 2
// evaluates dependent rules against pass-1 outcomes, gated by their
// seasonal window where one is declared; dependent members of an
// exclusivity group obey the same first-match rule, and a group that
// already billed in pass 1 stays billed, so no group ever bills twice.
// Allocation rules always contribute their expected-value amount.
func (e *Engine) Evaluate(in Input) Outcome {
	out := Outcome{Triggered: make(map[string]bool)}
	won := make(map[string]bool, len(e.groups)+len(e.depGroups))

	// Pass 1: ungrouped independent rules stack freely.
	for _, r := range e.independent {
		if e.active(r, in) {
			e.apply(&out, r)
		} else {
			out.Triggered[r.ID] = false
		}
	}

	// Pass 1: exclusivity groups, first match by priority wins.
	for _, g := range sortedNames(e.groups) {
		for _, r := range e.groups[g] {
			if !won[g] && e.active(r, in) {
				e.apply(&out, r)
				won[g] = true
				continue
			}
			out.Triggered[r.ID] = false
		}
	}

	// Pass 2: dependent rules see pass-1 outcomes.
	for _, r := range e.dependent {
		if out.Triggered[r.DependsOn] && e.active(r, in) {
			e.apply(&out, r)
			out.Charges[len(out.Charges)-1].Demand = true
		} else {
			out.Triggered[r.ID] = false
		}
	}

	// Pass 2: grouped dependent rules. The group ledger carries over
	// from pass 1.
	for _, g := range sortedNames(e.depGroups) {
		for _, r := range e.depGroups[g] {
			if !won[g] && out.Triggered[r.DependsOn] && e.active(r, in) {
				e.apply(&out, r)
				out.Charges[len(out.Charges)-1].Demand = true
				won[g] = true
				continue
			}
			out.Triggered[r.ID] = false
		}
	}

	// Allocation rules: expected-value amortization, no trigger.
	for _, r := range e.allocation {
		amount := r.NetPrice().Mul(decimal.NewFromFloat(r.AllocationRate)).Round(4)
		out.Charges = append(out.Charges, Charge{RuleID: r.ID, Amount: amount, Allocated: true})
		out.Triggered[r.ID] = true
	}

	return out
}

func sortedNames(groups map[string][]Rule) []string {
	names := make([]string, 0, len(groups))
	for g := range groups {
		names = append(names, g)
	}
	sort.Strings(names)
	return names
}

// active checks trigger and, where declared, the seasonal window over
// the lag-adjusted ship date.
func (e *Engine) active(r Rule, in Input) bool {
	if r.Window != nil && !r.Window.Contains(in.ShipDate) {
		return false
	}
	return r.Trigger.Eval(in)
}

func (e *Engine) apply(out *Outcome, r Rule) {
	out.Triggered[r.ID] = true
	out.Charges = append(out.Charges, Charge{RuleID: r.ID, Amount: r.NetPrice().Round(4)})
	if r.WeightFloor > out.WeightFloor {
		out.WeightFloor = r.WeightFloor
	}
}
