package surcharge

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrier-cost/decision/shipment"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func inputWithLongest(longest float64) Input {
	return Input{Dims: shipment.Dims{Longest: longest}}
}

func TestStrictThresholdBoundary(t *testing.T) {
	rules := []Rule{{
		ID: "long_pkg",
		Trigger: Trigger{All: []Cond{
			{Attr: AttrLongest, Op: OpGt, Value: 48},
		}},
		ListPrice: dec("24.00"),
	}}
	e := NewEngine(rules)

	// Exactly at the threshold does not trigger; strictly over does.
	assert.False(t, e.Evaluate(inputWithLongest(48.0)).Triggered["long_pkg"])
	assert.True(t, e.Evaluate(inputWithLongest(48.1)).Triggered["long_pkg"])
}

func TestExclusivityGroupPriority(t *testing.T) {
	rules := []Rule{
		{
			ID: "ahs_dim", Group: "handling", Priority: 2,
			Trigger:   Trigger{All: []Cond{{Attr: AttrLongest, Op: OpGt, Value: 48}}},
			ListPrice: dec("24.00"),
		},
		{
			ID: "ahs_weight", Group: "handling", Priority: 1,
			Trigger:   Trigger{All: []Cond{{Attr: AttrActualWeight, Op: OpGt, Value: 50}}},
			ListPrice: dec("34.00"),
		},
	}
	e := NewEngine(rules)

	// Both predicates true: only the lower priority number bills.
	out := e.Evaluate(Input{Dims: shipment.Dims{Longest: 60}, ActualWeight: 55})
	assert.True(t, out.Triggered["ahs_weight"])
	assert.False(t, out.Triggered["ahs_dim"])
	require.Len(t, out.Charges, 1)
	assert.Equal(t, "ahs_weight", out.Charges[0].RuleID)

	// Only the lower-priority (higher number) predicate true: it bills.
	out = e.Evaluate(Input{Dims: shipment.Dims{Longest: 60}, ActualWeight: 10})
	assert.True(t, out.Triggered["ahs_dim"])
	assert.False(t, out.Triggered["ahs_weight"])
}

func TestUngroupedRulesStack(t *testing.T) {
	rules := []Rule{
		{
			ID:        "long_pkg",
			Trigger:   Trigger{All: []Cond{{Attr: AttrLongest, Op: OpGt, Value: 22}}},
			ListPrice: dec("4.00"),
		},
		{
			ID:        "heavy_pkg",
			Trigger:   Trigger{All: []Cond{{Attr: AttrActualWeight, Op: OpGt, Value: 50}}},
			ListPrice: dec("10.00"),
		},
	}
	out := NewEngine(rules).Evaluate(Input{Dims: shipment.Dims{Longest: 30}, ActualWeight: 60})
	assert.Len(t, out.Charges, 2)
}

func TestDependentRuleAndBillingLagWindow(t *testing.T) {
	window := &Window{
		Start:   time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2027, 1, 17, 0, 0, 0, 0, time.UTC),
		LagDays: 6,
	}
	rules := []Rule{
		{
			ID:        "ahs_dim",
			Trigger:   Trigger{All: []Cond{{Attr: AttrLongest, Op: OpGt, Value: 48}}},
			ListPrice: dec("24.00"),
		},
		{
			ID: "peak_ahs", DependsOn: "ahs_dim", Window: window,
			ListPrice: dec("8.50"),
		},
	}
	e := NewEngine(rules)

	// Lag-adjusted start is Oct 20: shipping Oct 19 misses the window,
	// Oct 21 lands in it.
	dayBefore := e.Evaluate(Input{
		Dims: shipment.Dims{Longest: 60}, ShipDate: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
	})
	assert.True(t, dayBefore.Triggered["ahs_dim"])
	assert.False(t, dayBefore.Triggered["peak_ahs"])

	dayAfter := e.Evaluate(Input{
		Dims: shipment.Dims{Longest: 60}, ShipDate: time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC),
	})
	assert.True(t, dayAfter.Triggered["peak_ahs"])

	// Dependent rules require the parent even inside the window.
	inWindowNoParent := e.Evaluate(Input{
		Dims: shipment.Dims{Longest: 10}, ShipDate: time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC),
	})
	assert.False(t, inWindowNoParent.Triggered["peak_ahs"])
}

func TestWindowEndsInclusive(t *testing.T) {
	w := Window{
		Start: time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2027, 1, 17, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, w.Contains(time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2027, 1, 17, 0, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2027, 1, 18, 0, 0, 0, 0, time.UTC)))
}

func TestAllocationRuleAppliesToEveryShipment(t *testing.T) {
	// Residential delivery cannot be observed per shipment, so the
	// charge amortizes at the invoice match rate. Expected-value
	// approximation on purpose, not a missing trigger.
	rules := []Rule{{
		ID:             "res_delivery",
		ListPrice:      dec("5.55"),
		Discount:       0.40,
		AllocationRate: 0.93,
	}}
	e := NewEngine(rules)

	out := e.Evaluate(Input{}) // nothing about this shipment matters
	require.Len(t, out.Charges, 1)
	assert.True(t, out.Charges[0].Allocated)
	// 5.55 * 0.6 * 0.93 = 3.0969
	assert.True(t, out.Charges[0].Amount.Equal(dec("3.0969")), "got %s", out.Charges[0].Amount)
}

func TestWeightFloorTakesMaximum(t *testing.T) {
	rules := []Rule{
		{
			ID:          "ahs_dim",
			Trigger:     Trigger{All: []Cond{{Attr: AttrLongest, Op: OpGt, Value: 48}}},
			ListPrice:   dec("24.00"),
			WeightFloor: 30,
		},
		{
			ID:          "oversize_pkg",
			Trigger:     Trigger{All: []Cond{{Attr: AttrLengthPlusGirth, Op: OpGt, Value: 105}}},
			ListPrice:   dec("110.00"),
			WeightFloor: 90,
		},
	}
	e := NewEngine(rules)

	out := e.Evaluate(Input{Dims: shipment.Dims{Longest: 60, LengthPlusGirth: 120}})
	assert.Equal(t, 90.0, out.WeightFloor)

	out = e.Evaluate(Input{Dims: shipment.Dims{Longest: 60, LengthPlusGirth: 100}})
	assert.Equal(t, 30.0, out.WeightFloor)
}

func TestAtMostOnePerExclusivityGroup(t *testing.T) {
	// Property from the contract semantics: whatever the shipment,
	// zero or one member of each group carries a non-zero charge.
	rules := []Rule{
		{ID: "a", Group: "g", Priority: 0, Trigger: Trigger{All: []Cond{{Attr: AttrVolume, Op: OpGt, Value: 100}}}, ListPrice: dec("1")},
		{ID: "b", Group: "g", Priority: 1, Trigger: Trigger{All: []Cond{{Attr: AttrVolume, Op: OpGt, Value: 50}}}, ListPrice: dec("2")},
		{ID: "c", Group: "g", Priority: 2, Trigger: Trigger{All: []Cond{{Attr: AttrVolume, Op: OpGt, Value: 10}}}, ListPrice: dec("3")},
	}
	e := NewEngine(rules)

	for _, volume := range []float64{0, 20, 60, 150} {
		out := e.Evaluate(Input{Dims: shipment.Dims{Volume: volume}})
		active := 0
		for _, id := range []string{"a", "b", "c"} {
			if out.Triggered[id] {
				active++
			}
		}
		assert.LessOrEqual(t, active, 1, "volume %v", volume)
		assert.Equal(t, active, len(out.Charges), "volume %v", volume)
	}
}

func TestDependentRulesObeyExclusivityGroup(t *testing.T) {
	// Seasonal demand layers over a shared parent still bill at most
	// once when they share an exclusivity group.
	rules := []Rule{
		{
			ID:        "parent",
			Trigger:   Trigger{All: []Cond{{Attr: AttrLongest, Op: OpGt, Value: 48}}},
			ListPrice: dec("24.00"),
		},
		{
			ID: "peak_a", Group: "peak", Priority: 0,
			DependsOn: "parent",
			ListPrice: dec("8.50"),
		},
		{
			ID: "peak_b", Group: "peak", Priority: 1,
			DependsOn: "parent",
			ListPrice: dec("6.00"),
		},
	}
	out := NewEngine(rules).Evaluate(inputWithLongest(60))

	assert.True(t, out.Triggered["peak_a"])
	assert.False(t, out.Triggered["peak_b"])
	require.Len(t, out.Charges, 2)
	assert.Equal(t, "parent", out.Charges[0].RuleID)
	assert.Equal(t, "peak_a", out.Charges[1].RuleID)
	assert.True(t, out.Charges[1].Demand)
}

func TestExclusivityGroupSpansPasses(t *testing.T) {
	// A group billed in pass 1 stays billed: its dependent member is
	// suppressed even when its dependency triggered.
	rules := []Rule{
		{
			ID: "base_handling", Group: "handling", Priority: 0,
			Trigger:   Trigger{All: []Cond{{Attr: AttrLongest, Op: OpGt, Value: 48}}},
			ListPrice: dec("24.00"),
		},
		{
			ID: "peak_handling", Group: "handling", Priority: 1,
			DependsOn: "base_handling",
			ListPrice: dec("8.50"),
		},
	}
	e := NewEngine(rules)

	out := e.Evaluate(inputWithLongest(60))
	assert.True(t, out.Triggered["base_handling"])
	assert.False(t, out.Triggered["peak_handling"])
	require.Len(t, out.Charges, 1)

	// Parent quiet: the dependent member cannot bill either.
	out = e.Evaluate(inputWithLongest(10))
	assert.Empty(t, out.Charges)
}
