// Package surcharge provides the surcharge resolution engine: an
// ordered, carrier-specific set of declarative rule records evaluated
// by a generic two-pass interpreter.
//
// Rules are data, not types. Each carrier contract contributes a slice
// of Rule records; the interpreter owns evaluation order, exclusivity
// resolution, and side effects, so those behaviors are testable
// properties of one engine rather than consequences of per-surcharge
// code.
package surcharge

import (
	"time"

	"github.com/shopspring/decimal"

	"carrier-cost/decision/shipment"
)

// Attr names a shipment-derived attribute a trigger condition can
// reference.
type Attr string

const (
	AttrLongest         Attr = "longest"
	AttrSecondLongest   Attr = "second_longest"
	AttrLengthPlusGirth Attr = "length_plus_girth"
	AttrVolume          Attr = "volume"
	AttrActualWeight    Attr = "actual_weight"
	AttrBillableWeight  Attr = "billable_weight"
	AttrZone            Attr = "zone"
	AttrRemoteArea      Attr = "remote_area"
	AttrPackageType     Attr = "package_type"
)

// Op is a trigger comparison operator. Numeric thresholds in carrier
// contracts are strictly greater-than, never >=; OpGt is the only
// numeric operator on purpose.
type Op string

const (
	OpGt Op = "gt" // numeric: attribute strictly greater than Value
	OpEq Op = "eq" // string: attribute equals Text
	OpIs Op = "is" // boolean: attribute is true
)

// Cond is a single trigger condition.
type Cond struct {
	Attr  Attr    `json:"attr"`
	Op    Op      `json:"op"`
	Value float64 `json:"value,omitempty"`
	Text  string  `json:"text,omitempty"`
}

// Trigger is a predicate over shipment attributes. All conditions in
// All must hold; if Any is non-empty, at least one of it must hold too.
type Trigger struct {
	All []Cond `json:"all,omitempty"`
	Any []Cond `json:"any,omitempty"`
}

// Window is a seasonal activity window. Both ends are inclusive.
// LagDays shifts the ship date forward before the window check,
// modeling the delay between shipping and invoice dating.
type Window struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	LagDays int       `json:"lag_days"`
}

// Contains reports whether the lag-adjusted ship date falls inside the
// window.
func (w Window) Contains(shipDate time.Time) bool {
	d := shipDate.AddDate(0, 0, w.LagDays)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Rule is one declarative surcharge record from a carrier contract.
type Rule struct {
	ID string `json:"id"`

	// Trigger predicate over shipment attributes. Ignored for
	// allocation rules.
	Trigger Trigger `json:"trigger"`

	ListPrice decimal.Decimal `json:"list_price"`
	Discount  float64         `json:"discount"` // contractual, 0..1

	// Exclusivity: at most one rule per non-empty Group applies to a
	// shipment; lower Priority wins among triggered group members.
	Group    string `json:"group,omitempty"`
	Priority int    `json:"priority,omitempty"`

	// DependsOn names a pass-1 rule whose triggered outcome this rule
	// requires. Dependent rules are evaluated only after every
	// independent rule has settled.
	DependsOn string `json:"depends_on,omitempty"`

	// Window, when set, additionally gates the rule on the
	// lag-adjusted ship date.
	Window *Window `json:"window,omitempty"`

	// AllocationRate, when > 0, marks an allocation-based rule: the
	// cost applies to every shipment at an expected-value rate because
	// the true per-shipment trigger is unobservable from available
	// data. Calibrated externally per rate-card version.
	AllocationRate float64 `json:"allocation_rate,omitempty"`

	// WeightFloor, when > 0, raises the billable weight to at least
	// this value whenever the rule triggers. Applied after both
	// passes; the maximum floor across triggered rules wins.
	WeightFloor float64 `json:"weight_floor,omitempty"`
}

// NetPrice is the contracted per-shipment cost when the rule triggers
// outright: list price net of the contractual discount.
func (r Rule) NetPrice() decimal.Decimal {
	return r.ListPrice.Mul(decimal.NewFromFloat(1 - r.Discount))
}

// IsAllocation reports whether the rule is allocation-based.
func (r Rule) IsAllocation() bool {
	return r.AllocationRate > 0
}

// IsDependent reports whether the rule waits on a pass-1 outcome.
func (r Rule) IsDependent() bool {
	return r.DependsOn != ""
}

// Input carries the shipment attributes visible to triggers.
type Input struct {
	Dims           shipment.Dims
	ActualWeight   float64
	BillableWeight float64
	Zone           string
	RemoteArea     bool
	PackageType    string
	ShipDate       time.Time
}

func (in Input) numeric(a Attr) (float64, bool) {
	switch a {
	case AttrLongest:
		return in.Dims.Longest, true
	case AttrSecondLongest:
		return in.Dims.SecondLongest, true
	case AttrLengthPlusGirth:
		return in.Dims.LengthPlusGirth, true
	case AttrVolume:
		return in.Dims.Volume, true
	case AttrActualWeight:
		return in.ActualWeight, true
	case AttrBillableWeight:
		return in.BillableWeight, true
	}
	return 0, false
}

func (in Input) text(a Attr) (string, bool) {
	switch a {
	case AttrZone:
		return in.Zone, true
	case AttrPackageType:
		return in.PackageType, true
	}
	return "", false
}

// Eval evaluates one condition against the input. Unknown attributes
// never match.
func (c Cond) Eval(in Input) bool {
	switch c.Op {
	case OpGt:
		v, ok := in.numeric(c.Attr)
		return ok && v > c.Value
	case OpEq:
		s, ok := in.text(c.Attr)
		return ok && s == c.Text
	case OpIs:
		return c.Attr == AttrRemoteArea && in.RemoteArea
	}
	return false
}

// Eval evaluates the whole trigger against the input.
func (t Trigger) Eval(in Input) bool {
	for _, c := range t.All {
		if !c.Eval(in) {
			return false
		}
	}
	if len(t.Any) == 0 {
		return true
	}
	for _, c := range t.Any {
		if c.Eval(in) {
			return true
		}
	}
	return false
}
