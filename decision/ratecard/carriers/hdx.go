package carriers

import (
	"time"

	"carrier-cost/decision/ratecard"
	"carrier-cost/decision/surcharge"
)

// HDX is a two-service national carrier: HD (home delivery) and EP
// (economy parcel). The two services share the zone chart and the
// discount-tier schedule but carry separate rate tables and rule
// sets, which is what makes per-service tier adjustment matter.
func HDX() *ratecard.Carrier {
	zones := hdxZones()
	tiers := []ratecard.DiscountTier{
		{Name: "base", Threshold: dec("0"), Discounts: []float64{0.25}},
		{Name: "tier2", Threshold: dec("250000"), Discounts: []float64{0.25, 0.05}},
	}

	hd := &ratecard.Card{
		Carrier: "HDX",
		Service: "HD",
		Version: "2026.1",
		Zones:   zones,
		Brackets: []ratecard.WeightBracket{
			bracket(0, 5, map[string]string{"2": "8.90", "4": "9.65", "8": "12.40"}),
			bracket(5, 10, map[string]string{"2": "10.75", "4": "12.10", "8": "16.85"}),
			bracket(10, 20, map[string]string{"2": "13.60", "4": "16.30", "8": "23.95"}),
			bracket(20, 40, map[string]string{"2": "19.20", "4": "24.10", "8": "36.50"}),
			bracket(40, 70, map[string]string{"2": "28.45", "4": "36.80", "8": "55.20"}),
			bracket(70, 150, map[string]string{"2": "46.90", "4": "61.25", "8": "92.70"}),
		},
		Oversize: &ratecard.OversizeRate{
			LengthPlusGirthOver: 130,
			Prices:              prices(map[string]string{"2": "92.50", "4": "118.00", "8": "164.00"}),
		},
		DimDivisor: 139,
		// No volume threshold: dimensional weight always competes.
		MaxWeight: 150,
		Rules:      hdxHDRules(),
		FuelRate:   0.07,
		FuelBase:   ratecard.FuelOnRated,
		BakedTier:  "base",
		Tiers:      tiers,
		Qualifying: ratecard.QualifyUndiscountedBase,
	}

	ep := &ratecard.Card{
		Carrier: "HDX",
		Service: "EP",
		Version: "2026.1",
		Zones:   zones,
		Brackets: []ratecard.WeightBracket{
			bracket(0, 1, map[string]string{"2": "4.35", "4": "4.80", "8": "5.95"}),
			bracket(1, 5, map[string]string{"2": "6.10", "4": "7.25", "8": "9.80"}),
			bracket(5, 10, map[string]string{"2": "9.40", "4": "11.35", "8": "15.90"}),
			bracket(10, 20, map[string]string{"2": "13.15", "4": "16.05", "8": "23.30"}),
			bracket(20, 70, map[string]string{"2": "22.60", "4": "29.45", "8": "44.10"}),
		},
		DimDivisor:   139,
		DimThreshold: ptr(1728.0), // dim weight only over one cubic foot
		MaxWeight:    70,
		Rules:        hdxEPRules(),
		FuelRate:     0.07,
		FuelBase:     ratecard.FuelOnRated,
		BakedTier:    "base",
		Tiers:        tiers,
		Qualifying:   ratecard.QualifyUndiscountedBase,
	}

	return &ratecard.Carrier{Code: "HDX", Cards: []*ratecard.Card{hd, ep}}
}

// hdxHDRules is the HD surcharge schedule. The handling group is
// exclusive: packages qualifying several ways are billed once, most
// severe condition first.
func hdxHDRules() []surcharge.Rule {
	peak := &surcharge.Window{
		Start:   time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2027, 1, 17, 0, 0, 0, 0, time.UTC),
		LagDays: 6, // invoices date roughly a week after ship
	}
	return []surcharge.Rule{
		{
			ID: "oversize_pkg", Group: "handling", Priority: 0,
			Trigger: surcharge.Trigger{Any: []surcharge.Cond{
				{Attr: surcharge.AttrLengthPlusGirth, Op: surcharge.OpGt, Value: 105},
				{Attr: surcharge.AttrLongest, Op: surcharge.OpGt, Value: 96},
			}},
			ListPrice: dec("110.00"), Discount: 0.50,
			WeightFloor: 90,
		},
		{
			ID: "ahs_weight", Group: "handling", Priority: 1,
			Trigger: surcharge.Trigger{All: []surcharge.Cond{
				{Attr: surcharge.AttrActualWeight, Op: surcharge.OpGt, Value: 50},
			}},
			ListPrice: dec("34.00"), Discount: 0.40,
		},
		{
			ID: "ahs_dim", Group: "handling", Priority: 2,
			Trigger: surcharge.Trigger{Any: []surcharge.Cond{
				{Attr: surcharge.AttrLongest, Op: surcharge.OpGt, Value: 48},
				{Attr: surcharge.AttrSecondLongest, Op: surcharge.OpGt, Value: 30},
			}},
			ListPrice: dec("24.00"), Discount: 0.40,
			WeightFloor: 30,
		},
		// Seasonal demand layer on top of the handling surcharges.
		{
			ID: "peak_ahs_dim", DependsOn: "ahs_dim", Window: peak,
			ListPrice: dec("8.50"), Discount: 0,
		},
		{
			ID: "peak_ahs_weight", DependsOn: "ahs_weight", Window: peak,
			ListPrice: dec("8.50"), Discount: 0,
		},
		{
			ID: "peak_oversize", DependsOn: "oversize_pkg", Window: peak,
			ListPrice: dec("54.00"), Discount: 0,
		},
		// Residential delivery is unobservable from shipment data, so
		// it is amortized at the historical invoice match rate.
		{
			ID:        "res_delivery",
			ListPrice: dec("5.55"), Discount: 0.40,
			AllocationRate: 0.93,
		},
	}
}

// hdxEPRules is the EP schedule: same handling structure, no
// residential surcharge (economy is residential by definition and the
// base rates carry it).
func hdxEPRules() []surcharge.Rule {
	return []surcharge.Rule{
		{
			ID: "ep_ahs_dim", Group: "handling", Priority: 1,
			Trigger: surcharge.Trigger{Any: []surcharge.Cond{
				{Attr: surcharge.AttrLongest, Op: surcharge.OpGt, Value: 48},
				{Attr: surcharge.AttrSecondLongest, Op: surcharge.OpGt, Value: 30},
			}},
			ListPrice: dec("17.50"), Discount: 0.40,
			WeightFloor: 30,
		},
		{
			ID: "ep_ahs_weight", Group: "handling", Priority: 0,
			Trigger: surcharge.Trigger{All: []surcharge.Cond{
				{Attr: surcharge.AttrActualWeight, Op: surcharge.OpGt, Value: 50},
			}},
			ListPrice: dec("26.00"), Discount: 0.40,
		},
	}
}

func hdxZones() *ratecard.ZoneTable {
	return ratecard.NewZoneTable("4", map[string]map[string]ratecard.ZoneEntry{
		"LAX1": {
			"90210": {Zone: "2"},
			"90001": {Zone: "2"},
			"94105": {Zone: "2"},
			"60601": {Zone: "4"},
			"60605": {Zone: "4"},
			"10001": {Zone: "8"},
			"10013": {Zone: "8"},
			"33101": {Zone: "8"},
		},
		"EWR1": {
			"10001": {Zone: "2"},
			"10013": {Zone: "2"},
			"60601": {Zone: "4"},
			"60605": {Zone: "4"},
			"33101": {Zone: "4"},
			"90210": {Zone: "8"},
			"90001": {Zone: "8"},
			"94105": {Zone: "8"},
		},
	})
}
