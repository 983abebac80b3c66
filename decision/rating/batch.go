package rating

import (
	"context"
	"math"
	"sync"

	"carrier-cost/decision/shipment"
)

// Evaluation is the full rating result for one shipment: every
// serviceable carrier's cost plus the itemized breakdowns behind them.
// Carriers that cannot service the shipment are simply absent.
type Evaluation struct {
	ShipmentID string                 `json:"shipment_id"`
	Shipment   shipment.Shipment      `json:"-"`
	Costs      map[string]CarrierCost `json:"costs"` // carrier code -> cost
	Breakdowns []*Breakdown           `json:"breakdowns"`
}

// BatchResult is the output of a batch rating run.
type BatchResult struct {
	Evaluations []Evaluation `json:"evaluations"`

	// CardVersions records the contract version rated under, keyed by
	// carrier/service, for the run's audit trail.
	CardVersions map[string]string `json:"card_versions,omitempty"`

	// Statistics
	ShipmentsProcessed int `json:"shipments_processed"`
	Unserviceable      int `json:"unserviceable"` // no carrier could price the shipment
}

// RateAll prices every shipment against every carrier across a bounded
// worker pool. Rating is a pure function of (shipment, static cards),
// so there is no ordering requirement; results are returned in input
// order regardless of completion order.
func (e *Engine) RateAll(ctx context.Context, shipments []shipment.Shipment, workers int) (*BatchResult, error) {
	if workers <= 0 {
		workers = 4
	}
	workers = int(math.Min(float64(workers), float64(len(shipments))))
	if workers == 0 {
		return &BatchResult{CardVersions: e.cardVersions()}, nil
	}

	evals := make([]Evaluation, len(shipments))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				evals[i] = e.rateOne(shipments[i])
			}
		}()
	}

	var err error
feed:
	for i := range shipments {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		Evaluations:        evals,
		CardVersions:       e.cardVersions(),
		ShipmentsProcessed: len(evals),
	}
	for _, ev := range evals {
		if len(ev.Costs) == 0 {
			result.Unserviceable++
		}
	}
	return result, nil
}

func (e *Engine) cardVersions() map[string]string {
	versions := make(map[string]string)
	for _, carrier := range e.carriers {
		for _, card := range carrier.Cards {
			versions[carrier.Code+"/"+card.Service] = card.Version
		}
	}
	return versions
}

func (e *Engine) rateOne(s shipment.Shipment) Evaluation {
	ev := Evaluation{
		ShipmentID: s.ID,
		Shipment:   s,
		Costs:      make(map[string]CarrierCost, len(e.carriers)),
	}
	for _, carrier := range e.carriers {
		cc, breakdowns, ok := e.RateCarrier(s, carrier)
		if !ok {
			continue
		}
		ev.Costs[carrier.Code] = cc
		ev.Breakdowns = append(ev.Breakdowns, breakdowns...)
	}
	return ev
}
