package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrier-cost/decision/rating"
)

// groupWithServices builds a GroupCost whose carrier aggregates carry
// adjustable per-shipment service costs.
func groupWithServices(bucket string, weight float64, count int, perShipment map[string]string, bakedFactor float64) rating.GroupCost {
	g := group(bucket, weight, count, perShipment)
	for code, cg := range g.Carriers {
		sc := rating.ServiceCost{
			Service:     "STD",
			Total:       dec(perShipment[code]),
			Base:        dec(perShipment[code]),
			Qualifying:  dec(perShipment[code]),
			BakedFactor: bakedFactor,
		}
		for i := 0; i < count; i++ {
			cg.Shipments = append(cg.Shipments, rating.CarrierCost{
				Carrier: code, Selected: sc, Services: []rating.ServiceCost{sc},
			})
		}
	}
	return g
}

// cutoffFixture: PSL cheapest light, HDX cheapest mid, FRT cheapest heavy.
func cutoffFixture() []rating.GroupCost {
	return []rating.GroupCost{
		groupWithServices("100", 2, 10, map[string]string{"PSL": "4.00", "HDX": "6.00", "FRT": "20.00"}, 0.80),
		groupWithServices("100", 5, 10, map[string]string{"PSL": "5.00", "HDX": "7.00", "FRT": "20.00"}, 0.80),
		groupWithServices("100", 20, 10, map[string]string{"PSL": "14.00", "HDX": "10.00", "FRT": "18.00"}, 0.80),
		groupWithServices("100", 60, 10, map[string]string{"PSL": "40.00", "HDX": "35.00", "FRT": "25.00"}, 0.80),
	}
}

func defaultRoute() CutoffRoute {
	return CutoffRoute{LowCarrier: "PSL", MidCarrier: "HDX", HighCarrier: "FRT"}
}

func TestSearchCutoffsFindsCheapestSplit(t *testing.T) {
	res := SearchCutoffs(CutoffRequest{Groups: cutoffFixture(), Route: defaultRoute()})
	require.NotNil(t, res.Best)
	assert.False(t, res.Capped)

	// Optimal split routes 2 and 5 lb to PSL, 20 lb to HDX, 60 lb to
	// FRT: (4+5)*10 + 10*10 + 25*10 = 440.
	assert.True(t, res.Best.TotalCost.Equal(dec("440.00")), "total %s", res.Best.TotalCost)
	assert.Equal(t, 5.0, res.Best.Low)
	assert.Equal(t, 20.0, res.Best.High)

	// Cutpoints {0, 2, 5, 20, 60}: 15 ordered pairs with high >= low.
	assert.Equal(t, 15, res.Iterations)
}

func TestSearchCutoffsQualifiedTracksThresholdSeparately(t *testing.T) {
	res := SearchCutoffs(CutoffRequest{
		Groups: cutoffFixture(),
		Route:  defaultRoute(),
		Threshold: &Threshold{
			Carrier:       "HDX",
			MinQualifying: dec("200.00"),
			TargetFactor:  0.60,
		},
	})
	require.NotNil(t, res.Best)
	require.NotNil(t, res.Qualified)

	// Best stays the unconstrained 440 split, which routes only 100 of
	// qualifying spend to HDX and does not clear the threshold.
	assert.True(t, res.Best.TotalCost.Equal(dec("440.00")))

	// Qualifying only clears when HDX also takes the 2 and 5 lb groups:
	// (0, 20) routes 60+70+100 = 230 of HDX spend.
	assert.True(t, res.Qualified.Qualifying.GreaterThanOrEqual(dec("200.00")),
		"qualifying %s", res.Qualified.Qualifying)
	assert.Equal(t, 0.0, res.Qualified.Low)
	assert.Equal(t, 20.0, res.Qualified.High)

	// At the earned tier HDX costs drop to 75% of baked, so the
	// qualified plan undercuts the unconstrained best:
	// 230 * 0.75 + 250 = 422.50.
	assert.True(t, res.Qualified.TotalCost.Equal(dec("422.50")),
		"qualified total %s", res.Qualified.TotalCost)
	assert.True(t, res.Qualified.TotalCost.LessThan(res.Best.TotalCost))
}

func TestSearchCutoffsNilQualifiedIsInfeasible(t *testing.T) {
	res := SearchCutoffs(CutoffRequest{
		Groups: cutoffFixture(),
		Route:  defaultRoute(),
		Threshold: &Threshold{
			Carrier:       "HDX",
			MinQualifying: dec("1000000"),
			TargetFactor:  0.60,
		},
	})
	require.NotNil(t, res.Best)
	assert.Nil(t, res.Qualified, "unreachable threshold must yield nil, never fall back to Best")
}

func TestSearchCutoffsIterationCap(t *testing.T) {
	res := SearchCutoffs(CutoffRequest{
		Groups:        cutoffFixture(),
		Route:         defaultRoute(),
		MaxIterations: 4,
	})
	assert.True(t, res.Capped)
	assert.Equal(t, 4, res.Iterations)
	assert.NotNil(t, res.Best)
}

func TestRouteCarrierFallsBackWhenUnserviceable(t *testing.T) {
	g := group("100", 3, 5, map[string]string{"HDX": "6.00", "FRT": "9.00"})
	// 3 lb routes low, but PSL is absent from the group.
	got := routeCarrier(defaultRoute(), g, 5, 20)
	assert.Equal(t, "HDX", got)
}
