package ratecard

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrier-cost/decision/shipment"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(v float64) *float64 { return &v }

func testCard() *Card {
	return &Card{
		Carrier: "HDX",
		Service: "HD",
		Zones: NewZoneTable("4", map[string]map[string]ZoneEntry{
			"LAX1": {
				"90210": {Zone: "2"},
				"90211": {Zone: "2"},
				"90212": {Zone: "3"},
				"10001": {Zone: "8"},
			},
		}),
		Brackets: []WeightBracket{
			{Lower: 0, Upper: 10, Prices: map[string]decimal.Decimal{"2": dec("8.00"), "8": dec("12.00")}},
			{Lower: 10, Upper: 20, Prices: map[string]decimal.Decimal{"2": dec("13.00"), "8": dec("21.00")}},
			{Lower: 20, Upper: 50, Prices: map[string]decimal.Decimal{"2": dec("19.00"), "8": dec("31.00")}},
		},
		DimDivisor: 250,
		MaxWeight:  50,
	}
}

func TestZoneResolutionFallbackChain(t *testing.T) {
	z := testCard().Zones

	// Tier 1: exact postal match for the origin.
	assert.Equal(t, "8", z.Resolve("LAX1", "10001").Zone)

	// Tier 2: modal zone of the postal prefix. Prefix 902 has zones
	// {2, 2, 3}, so 2 wins.
	assert.Equal(t, "2", z.Resolve("LAX1", "90299").Zone)

	// Tier 3: default zone when even the prefix is unknown.
	assert.Equal(t, "4", z.Resolve("LAX1", "33101").Zone)

	// Unknown origin with a multi-origin table degrades the same way.
	assert.Equal(t, "2", z.Resolve("ORD9", "90210").Zone)
}

func TestZoneRemoteAreaFlag(t *testing.T) {
	z := NewZoneTable("3", map[string]map[string]ZoneEntry{
		"ANY": {
			"59936": {Zone: "5", RemoteArea: true},
			"10001": {Zone: "1"},
		},
	})
	assert.True(t, z.Resolve("ANY", "59936").RemoteArea)
	assert.False(t, z.Resolve("ANY", "10001").RemoteArea)
	// The fallback tiers never invent a remote flag.
	assert.False(t, z.Resolve("ANY", "59999").RemoteArea)
}

func TestBillableWeightDimensionalWins(t *testing.T) {
	// 20x20x10 at divisor 250 with a 1728 cu in threshold:
	// volume 4000 > 1728, dim weight 16.0 beats actual 5.
	card := testCard()
	card.DimThreshold = ptr(1728.0)

	d := shipment.ComputeDims(shipment.Shipment{Length: 20, Width: 20, Height: 10})
	require.Equal(t, 4000.0, d.Volume)
	assert.Equal(t, 16.0, card.BillableWeight(d, 5))
}

func TestBillableWeightUnderThresholdUsesActual(t *testing.T) {
	card := testCard()
	card.DimThreshold = ptr(1728.0)

	// 12x12x12 = 1728 exactly: not strictly over, actual weight rules
	// even though dim weight would be 6.9.
	d := shipment.ComputeDims(shipment.Shipment{Length: 12, Width: 12, Height: 12})
	assert.Equal(t, 2.0, card.BillableWeight(d, 2))
}

func TestBillableWeightNoThresholdAlwaysCompares(t *testing.T) {
	card := testCard() // DimThreshold nil
	d := shipment.ComputeDims(shipment.Shipment{Length: 10, Width: 10, Height: 10})
	// volume 1000, dim weight 4.0 > actual 3
	assert.Equal(t, 4.0, card.BillableWeight(d, 3))
}

func TestBillableWeightMonotonicity(t *testing.T) {
	card := testCard()
	prev := 0.0
	for actual := 1.0; actual <= 30; actual++ {
		w := card.BillableWeight(shipment.Dims{Volume: 2000}, actual)
		assert.GreaterOrEqual(t, w, prev)
		prev = w
	}
	prev = 0.0
	for volume := 100.0; volume <= 10000; volume += 100 {
		w := card.BillableWeight(shipment.Dims{Volume: volume}, 5)
		assert.GreaterOrEqual(t, w, prev)
		prev = w
	}
}

func TestLookupBracketBoundsLowerExclusiveUpperInclusive(t *testing.T) {
	card := testCard()

	br, ok := card.Lookup(shipment.Dims{}, "2", 10.0)
	require.True(t, ok)
	assert.True(t, br.Price.Equal(dec("8.00")), "weight 10.0 belongs to (0,10]")

	br, ok = card.Lookup(shipment.Dims{}, "2", 10.1)
	require.True(t, ok)
	assert.True(t, br.Price.Equal(dec("13.00")), "weight 10.1 belongs to (10,20]")
}

func TestLookupCapsAtMaxServiceableWeight(t *testing.T) {
	card := testCard()
	br, ok := card.Lookup(shipment.Dims{}, "2", 80.0)
	require.True(t, ok)
	assert.Equal(t, 50.0, br.Weight)
	assert.True(t, br.Price.Equal(dec("19.00")))
}

func TestLookupUnknownZoneIsAbsence(t *testing.T) {
	card := testCard()
	_, ok := card.Lookup(shipment.Dims{}, "99", 5.0)
	assert.False(t, ok)
}

func TestLookupOversizeOverride(t *testing.T) {
	card := testCard()
	card.Oversize = &OversizeRate{
		LengthPlusGirthOver: 130,
		Prices:              map[string]decimal.Decimal{"2": dec("92.50")},
	}

	// At the trigger exactly: normal bracket path.
	br, ok := card.Lookup(shipment.Dims{LengthPlusGirth: 130}, "2", 5)
	require.True(t, ok)
	assert.False(t, br.Oversize)

	// Strictly over: flat rate regardless of weight, indicator set.
	br, ok = card.Lookup(shipment.Dims{LengthPlusGirth: 130.1}, "2", 5)
	require.True(t, ok)
	assert.True(t, br.Oversize)
	assert.True(t, br.Price.Equal(dec("92.50")))
}

func TestApplyFloor(t *testing.T) {
	assert.Equal(t, 30.0, ApplyFloor(16, 30))
	assert.Equal(t, 42.0, ApplyFloor(42, 30))
	assert.Equal(t, 16.0, ApplyFloor(16, 0))
}

func TestValidate(t *testing.T) {
	t.Run("valid card passes", func(t *testing.T) {
		assert.NoError(t, testCard().Validate())
	})

	t.Run("bracket gap is fatal", func(t *testing.T) {
		card := testCard()
		card.Brackets[1].Lower = 12 // hole between 10 and 12
		assert.Error(t, card.Validate())
	})

	t.Run("brackets short of max weight is fatal", func(t *testing.T) {
		card := testCard()
		card.MaxWeight = 200
		assert.Error(t, card.Validate())
	})

	t.Run("bad divisor is fatal", func(t *testing.T) {
		card := testCard()
		card.DimDivisor = 0
		assert.Error(t, card.Validate())
	})

	t.Run("missing zone table is fatal", func(t *testing.T) {
		card := testCard()
		card.Zones = nil
		assert.Error(t, card.Validate())
	})
}

func TestDiscountTierFactor(t *testing.T) {
	tier := DiscountTier{Name: "tier2", Discounts: []float64{0.25, 0.05}}
	assert.InDelta(t, 0.70, tier.Factor(), 1e-12)
}
