package rating

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// GroupKey identifies an assignment group: the coarsened unit the
// optimizer reasons about instead of individual shipments. Destination
// is bucketed by 3-digit postal prefix so the key is carrier-agnostic;
// weight is bucketed by whole billable pounds.
type GroupKey struct {
	PackageType string  `json:"package_type"`
	DestBucket  string  `json:"dest_bucket"`
	WeightLb    float64 `json:"weight_lb"`
}

func (k GroupKey) String() string {
	return fmt.Sprintf("%s|%s|%glb", k.PackageType, k.DestBucket, k.WeightLb)
}

// MarshalText lets GroupKey act as a JSON map key in results.
func (k GroupKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// GroupCost aggregates the rated cost of one group per carrier.
type GroupCost struct {
	Key   GroupKey `json:"key"`
	Count int      `json:"count"`

	// Carriers holds per-carrier aggregates. A carrier appears only
	// when it can service every shipment in the group.
	Carriers map[string]*CarrierGroupCost `json:"carriers"`
}

// CarrierGroupCost is one carrier's aggregate over a group. Shipments
// keeps the per-shipment service costs so discount-tier adjustment can
// re-run service selection shipment by shipment.
type CarrierGroupCost struct {
	Carrier    string          `json:"carrier"`
	Total      decimal.Decimal `json:"total"`
	Qualifying decimal.Decimal `json:"qualifying"`
	Shipments  []CarrierCost   `json:"-"`
}

// Average is the per-shipment average cost at this carrier.
func (c *CarrierGroupCost) Average(count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return c.Total.Div(decimal.NewFromInt(int64(count)))
}

// Aggregate rolls per-shipment evaluations up into assignment groups.
// A carrier is a candidate for a group only when it services every
// shipment in the group; partial coverage would otherwise hide
// unserviceable shipments inside an average.
func Aggregate(evals []Evaluation) []GroupCost {
	byKey := make(map[GroupKey]*GroupCost)

	for _, ev := range evals {
		key := GroupKey{
			PackageType: ev.Shipment.PackageType,
			DestBucket:  destBucket(ev.Shipment.DestPostal),
			WeightLb:    math.Ceil(ev.Shipment.ActualWeight),
		}
		g, ok := byKey[key]
		if !ok {
			g = &GroupCost{Key: key, Carriers: make(map[string]*CarrierGroupCost)}
			byKey[key] = g
		}
		g.Count++
		for code, cc := range ev.Costs {
			cg, ok := g.Carriers[code]
			if !ok {
				cg = &CarrierGroupCost{Carrier: code}
				g.Carriers[code] = cg
			}
			cg.Total = cg.Total.Add(cc.Selected.Total)
			cg.Qualifying = cg.Qualifying.Add(cc.Selected.Qualifying)
			cg.Shipments = append(cg.Shipments, cc)
		}
	}

	groups := make([]GroupCost, 0, len(byKey))
	for _, g := range byKey {
		// Drop carriers that missed part of the group.
		for code, cg := range g.Carriers {
			if len(cg.Shipments) != g.Count {
				delete(g.Carriers, code)
			}
		}
		groups = append(groups, *g)
	}

	// Deterministic group order for the optimizer.
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].Key, groups[j].Key
		if a.PackageType != b.PackageType {
			return a.PackageType < b.PackageType
		}
		if a.DestBucket != b.DestBucket {
			return a.DestBucket < b.DestBucket
		}
		return a.WeightLb < b.WeightLb
	})
	return groups
}

func destBucket(postal string) string {
	if len(postal) < 3 {
		return postal
	}
	return postal[:3]
}
