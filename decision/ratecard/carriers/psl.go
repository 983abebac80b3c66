package carriers

import (
	"carrier-cost/decision/ratecard"
	"carrier-cost/decision/surcharge"
)

// PSL is a single-service postal-style carrier. Its zone chart is
// origin-independent and carries a remote-area flag that drives the
// delivery-area surcharge. No fuel surcharge and no earned tiers.
func PSL() *ratecard.Carrier {
	ga := &ratecard.Card{
		Carrier: "PSL",
		Service: "GA",
		Version: "2026.1",
		Zones:   pslZones(),
		Brackets: []ratecard.WeightBracket{
			bracket(0, 1, map[string]string{"1": "3.95", "3": "4.30", "5": "5.10"}),
			bracket(1, 5, map[string]string{"1": "5.45", "3": "6.40", "5": "8.25"}),
			bracket(5, 10, map[string]string{"1": "8.10", "3": "10.05", "5": "13.70"}),
			bracket(10, 20, map[string]string{"1": "11.90", "3": "14.95", "5": "21.40"}),
			bracket(20, 70, map[string]string{"1": "20.30", "3": "26.80", "5": "40.15"}),
		},
		DimDivisor:   166,
		DimThreshold: ptr(1728.0),
		MaxWeight:    70,
		Rules:        pslRules(),
		FuelRate:     0, // postal product: fuel is baked into base rates
		FuelBase:     ratecard.FuelOnBase,
		Qualifying:   ratecard.QualifySubtotal,
	}
	return &ratecard.Carrier{Code: "PSL", Cards: []*ratecard.Card{ga}}
}

func pslRules() []surcharge.Rule {
	return []surcharge.Rule{
		{
			ID: "das_remote",
			Trigger: surcharge.Trigger{All: []surcharge.Cond{
				{Attr: surcharge.AttrRemoteArea, Op: surcharge.OpIs},
			}},
			ListPrice: dec("2.75"), Discount: 0.10,
		},
		// Nonstandard dimensions bill once at the most severe length.
		{
			ID: "ns_length30", Group: "nonstandard", Priority: 0,
			Trigger: surcharge.Trigger{All: []surcharge.Cond{
				{Attr: surcharge.AttrLongest, Op: surcharge.OpGt, Value: 30},
			}},
			ListPrice: dec("15.00"), Discount: 0,
		},
		{
			ID: "ns_length22", Group: "nonstandard", Priority: 1,
			Trigger: surcharge.Trigger{All: []surcharge.Cond{
				{Attr: surcharge.AttrLongest, Op: surcharge.OpGt, Value: 22},
			}},
			ListPrice: dec("4.00"), Discount: 0,
		},
		{
			ID: "ns_volume", Group: "nonstandard", Priority: 2,
			Trigger: surcharge.Trigger{All: []surcharge.Cond{
				{Attr: surcharge.AttrVolume, Op: surcharge.OpGt, Value: 3456},
			}},
			ListPrice: dec("3.00"), Discount: 0,
		},
	}
}

func pslZones() *ratecard.ZoneTable {
	return ratecard.NewZoneTable("3", map[string]map[string]ratecard.ZoneEntry{
		"ANY": {
			"90210": {Zone: "5"},
			"90001": {Zone: "5"},
			"94105": {Zone: "5"},
			"60601": {Zone: "3"},
			"60605": {Zone: "3"},
			"10001": {Zone: "1"},
			"10013": {Zone: "1"},
			"33101": {Zone: "3"},
			"59936": {Zone: "5", RemoteArea: true},
			"99723": {Zone: "5", RemoteArea: true},
		},
	})
}
