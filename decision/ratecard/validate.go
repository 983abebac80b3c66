package ratecard

import (
	"fmt"

	cfgerr "carrier-cost/pkg/errors"
)

// Validate checks a card for the configuration defects that would
// otherwise surface mid-run as wrong invoices. Malformed reference
// data is the only fatal error class; everything downstream of a
// successful load degrades through fallbacks instead of failing.
func (c *Card) Validate() error {
	if c.Zones == nil {
		return cfgerr.NewCardError(cfgerr.ErrCodeNoZoneTable, c.Carrier, c.Service, "zone table missing")
	}
	if len(c.Brackets) == 0 {
		return cfgerr.NewCardError(cfgerr.ErrCodeNoBrackets, c.Carrier, c.Service, "rate table has no weight brackets")
	}
	if c.DimDivisor <= 0 {
		return cfgerr.NewCardError(cfgerr.ErrCodeBadDivisor, c.Carrier, c.Service,
			fmt.Sprintf("dimensional divisor must be positive, got %v", c.DimDivisor))
	}

	// Brackets must tile (0, MaxWeight] without gaps so any capped
	// weight resolves.
	prev := 0.0
	for i, b := range c.Brackets {
		if b.Lower != prev || b.Upper <= b.Lower {
			return cfgerr.NewCardError(cfgerr.ErrCodeBracketGap, c.Carrier, c.Service,
				fmt.Sprintf("bracket %d (%v, %v] does not continue from %v", i, b.Lower, b.Upper, prev))
		}
		prev = b.Upper
	}
	if c.MaxWeight > prev {
		return cfgerr.NewCardError(cfgerr.ErrCodeBracketGap, c.Carrier, c.Service,
			fmt.Sprintf("brackets end at %v below max serviceable weight %v", prev, c.MaxWeight))
	}

	if c.BakedTier != "" && len(c.Tiers) > 0 {
		if _, ok := c.TierByName(c.BakedTier); !ok {
			return cfgerr.NewCardError(cfgerr.ErrCodeUnknownTier, c.Carrier, c.Service,
				fmt.Sprintf("baked tier %q not in tier schedule", c.BakedTier))
		}
	}

	// Dependent rules must name a rule that exists in this card.
	ids := make(map[string]bool, len(c.Rules))
	for _, r := range c.Rules {
		ids[r.ID] = true
	}
	for _, r := range c.Rules {
		if r.DependsOn != "" && !ids[r.DependsOn] {
			return cfgerr.NewCardError(cfgerr.ErrCodeDanglingRule, c.Carrier, c.Service,
				fmt.Sprintf("rule %q depends on unknown rule %q", r.ID, r.DependsOn))
		}
	}
	return nil
}
