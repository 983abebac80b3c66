// Package rating runs the per-shipment cost resolution pipeline:
// dimensional preprocessing, zone resolution, billable weight,
// surcharge evaluation, rate lookup, and aggregation into an itemized
// CostBreakdown per (shipment, carrier service).
package rating

import (
	"github.com/shopspring/decimal"

	"carrier-cost/decision/ratecard"
	"carrier-cost/decision/shipment"
	"carrier-cost/decision/surcharge"
)

// Component names used in every breakdown.
const (
	ComponentBase = "base_rate"
	ComponentFuel = "fuel"
)

// Breakdown is one fully itemized (shipment, carrier service) cost.
// Produced fresh per evaluation; never mutated afterward.
type Breakdown struct {
	ShipmentID string `json:"shipment_id"`
	Carrier    string `json:"carrier"`
	Service    string `json:"service"`

	Zone           string  `json:"zone"`
	RemoteArea     bool    `json:"remote_area,omitempty"`
	BillableWeight float64 `json:"billable_weight"`
	Oversize       bool    `json:"oversize,omitempty"`

	// Components maps component name -> amount. Subtotal is the exact
	// sum of every component except fuel; Total = Subtotal + Fuel.
	Components map[string]decimal.Decimal `json:"components"`
	Base       decimal.Decimal            `json:"base"`
	Subtotal   decimal.Decimal            `json:"subtotal"`
	Fuel       decimal.Decimal            `json:"fuel"`
	Total      decimal.Decimal            `json:"total"`

	// Qualifying is the spend this shipment contributes toward the
	// carrier's earned-discount threshold, per the card's qualifying
	// definition.
	Qualifying decimal.Decimal `json:"qualifying"`
}

// Engine evaluates shipments against a set of carrier contracts.
// Static reference data is loaded once at construction and immutable
// for the run, so evaluation is safe to parallelize freely.
type Engine struct {
	carriers []*ratecard.Carrier
	interps  map[*ratecard.Card]*surcharge.Engine
}

// NewEngine validates every card and builds the per-card surcharge
// interpreters. A malformed card is fatal here; nothing downstream
// errors per-shipment.
func NewEngine(carriers ...*ratecard.Carrier) (*Engine, error) {
	e := &Engine{
		carriers: carriers,
		interps:  make(map[*ratecard.Card]*surcharge.Engine),
	}
	for _, carrier := range carriers {
		for _, card := range carrier.Cards {
			if err := card.Validate(); err != nil {
				return nil, err
			}
			e.interps[card] = surcharge.NewEngine(card.Rules)
		}
	}
	return e, nil
}

// Carriers returns the contracts the engine rates against.
func (e *Engine) Carriers() []*ratecard.Carrier { return e.carriers }

// RateCard prices one shipment under one service's rate card. The
// second return is false when the card cannot service the shipment;
// that is absence, not an error. The card must be one the engine was
// constructed with; any other card is unpriceable here, since only
// validated cards carry a surcharge interpreter.
func (e *Engine) RateCard(s shipment.Shipment, card *ratecard.Card) (*Breakdown, bool) {
	interp, ok := e.interps[card]
	if !ok {
		return nil, false
	}

	dims := shipment.ComputeDims(s)
	zone := card.Zones.Resolve(s.OriginFacility, s.DestPostal)
	billable := card.BillableWeight(dims, s.ActualWeight)

	outcome := interp.Evaluate(surcharge.Input{
		Dims:           dims,
		ActualWeight:   s.ActualWeight,
		BillableWeight: billable,
		Zone:           zone.Zone,
		RemoteArea:     zone.RemoteArea,
		PackageType:    s.PackageType,
		ShipDate:       s.ShipDate,
	})

	// Surcharge-declared weight floors apply before rate lookup.
	billable = ratecard.ApplyFloor(billable, outcome.WeightFloor)

	base, ok := card.Lookup(dims, zone.Zone, billable)
	if !ok {
		return nil, false
	}

	b := &Breakdown{
		ShipmentID:     s.ID,
		Carrier:        card.Carrier,
		Service:        card.Service,
		Zone:           zone.Zone,
		RemoteArea:     zone.RemoteArea,
		BillableWeight: base.Weight,
		Oversize:       base.Oversize,
		Components:     make(map[string]decimal.Decimal, len(outcome.Charges)+2),
		Base:           base.Price,
	}
	b.Components[ComponentBase] = base.Price
	b.Subtotal = base.Price
	for _, ch := range outcome.Charges {
		b.Components[ch.RuleID] = ch.Amount
		b.Subtotal = b.Subtotal.Add(ch.Amount)
	}

	b.Fuel = fuelAmount(card, base.Price, outcome.Charges, b.Subtotal)
	if !b.Fuel.IsZero() {
		b.Components[ComponentFuel] = b.Fuel
	}
	b.Total = b.Subtotal.Add(b.Fuel)
	b.Qualifying = qualifyingSpend(card, b)
	return b, true
}

// fuelAmount applies the card's fuel percentage over its pinned base
// component set. Which charges feed fuel differs by contract and is a
// frequent invoice-mismatch source, hence the explicit switch.
func fuelAmount(card *ratecard.Card, base decimal.Decimal, charges []surcharge.Charge, subtotal decimal.Decimal) decimal.Decimal {
	if card.FuelRate <= 0 {
		return decimal.Zero
	}
	rate := decimal.NewFromFloat(card.FuelRate)
	switch card.FuelBase {
	case ratecard.FuelOnSubtotal:
		return subtotal.Mul(rate).Round(4)
	case ratecard.FuelOnBase:
		return base.Mul(rate).Round(4)
	default: // FuelOnRated: base + deterministic non-demand surcharges
		fuelBase := base
		for _, ch := range charges {
			if ch.Allocated || ch.Demand {
				continue
			}
			fuelBase = fuelBase.Add(ch.Amount)
		}
		return fuelBase.Mul(rate).Round(4)
	}
}

func qualifyingSpend(card *ratecard.Card, b *Breakdown) decimal.Decimal {
	switch card.Qualifying {
	case ratecard.QualifySubtotal:
		return b.Subtotal
	default: // QualifyUndiscountedBase
		factor := card.BakedFactor()
		if factor == 0 {
			return b.Base
		}
		return b.Base.Div(decimal.NewFromFloat(factor)).Round(4)
	}
}

// ServiceCost is the rate-dependent summary of one service's price
// for a shipment, carrying its own base component so discount-tier
// deltas are recomputed per service, never borrowed across services.
type ServiceCost struct {
	Service     string          `json:"service"`
	Total       decimal.Decimal `json:"total"`
	Base        decimal.Decimal `json:"base"`
	Qualifying  decimal.Decimal `json:"qualifying"`
	FuelRate    float64         `json:"fuel_rate"`
	BakedFactor float64         `json:"baked_factor"`

	// QualifyingBasis is the card's qualifying-spend definition,
	// carried so tier adjustment can tell whether Qualifying moves
	// with the rates (subtotal) or is tier-invariant (undiscounted
	// base).
	QualifyingBasis ratecard.QualifyingSpend `json:"qualifying_basis,omitempty"`
}

// CarrierCost is one carrier's price for a shipment: the cheapest
// service plus every serviceable alternative.
type CarrierCost struct {
	Carrier  string        `json:"carrier"`
	Selected ServiceCost   `json:"selected"`
	Services []ServiceCost `json:"services"`
}

// RateCarrier prices a shipment under every service of a carrier and
// selects the cheapest. False when no service can carry the shipment.
func (e *Engine) RateCarrier(s shipment.Shipment, carrier *ratecard.Carrier) (CarrierCost, []*Breakdown, bool) {
	cc := CarrierCost{Carrier: carrier.Code}
	var breakdowns []*Breakdown
	for _, card := range carrier.Cards {
		b, ok := e.RateCard(s, card)
		if !ok {
			continue
		}
		breakdowns = append(breakdowns, b)
		cc.Services = append(cc.Services, ServiceCost{
			Service:         card.Service,
			Total:           b.Total,
			Base:            b.Base,
			Qualifying:      b.Qualifying,
			FuelRate:        card.FuelRate,
			BakedFactor:     card.BakedFactor(),
			QualifyingBasis: card.Qualifying,
		})
	}
	if len(cc.Services) == 0 {
		return CarrierCost{}, nil, false
	}
	cc.Selected = cheapest(cc.Services)
	return cc, breakdowns, true
}

func cheapest(services []ServiceCost) ServiceCost {
	best := services[0]
	for _, sc := range services[1:] {
		if sc.Total.LessThan(best.Total) {
			best = sc
		}
	}
	return best
}
