package ratecard

import "sort"

// ZoneEntry is one postal-code row of a carrier zone table.
type ZoneEntry struct {
	Zone string `json:"zone"`
	// RemoteArea carries the carrier's secondary classification for
	// extended/remote delivery areas, resolved by the same postal
	// lookup and surfaced to surcharge triggers.
	RemoteArea bool `json:"remote_area,omitempty"`
}

// ZoneTable maps destination postal codes to carrier zones, keyed by
// origin facility. Carriers that publish origin-independent tables use
// a single origin key and Resolve falls through to it.
type ZoneTable struct {
	// Default is the fixed last-resort zone.
	Default string

	entries map[string]map[string]ZoneEntry // origin -> postal -> entry
	modal   map[string]string               // postal prefix bucket -> most frequent zone
}

// NewZoneTable builds a zone table and precomputes the modal-zone
// fallback per 3-digit postal prefix across every origin. The fallback
// covers destinations the carrier's table misses: most zone charts are
// contiguous by geography, so the dominant zone of the surrounding
// prefix is the best available guess.
func NewZoneTable(defaultZone string, byOrigin map[string]map[string]ZoneEntry) *ZoneTable {
	t := &ZoneTable{
		Default: defaultZone,
		entries: byOrigin,
		modal:   make(map[string]string),
	}

	counts := make(map[string]map[string]int) // prefix -> zone -> count
	for _, postals := range byOrigin {
		for postal, entry := range postals {
			p := prefix(postal)
			if counts[p] == nil {
				counts[p] = make(map[string]int)
			}
			counts[p][entry.Zone]++
		}
	}
	for p, zones := range counts {
		names := make([]string, 0, len(zones))
		for z := range zones {
			names = append(names, z)
		}
		// Ties break toward the lexically smaller zone so repeated
		// loads of the same table resolve identically.
		sort.Strings(names)
		best := names[0]
		for _, z := range names[1:] {
			if zones[z] > zones[best] {
				best = z
			}
		}
		t.modal[p] = best
	}
	return t
}

// Resolve maps (origin, destination postal) to a zone. Resolution
// degrades through three tiers and never fails: exact postal match for
// the origin (or the carrier's single shared table), then the modal
// zone of the destination's postal prefix, then the default zone.
func (t *ZoneTable) Resolve(origin, postal string) ZoneEntry {
	if postals, ok := t.entries[origin]; ok {
		if entry, ok := postals[postal]; ok {
			return entry
		}
	} else if len(t.entries) == 1 {
		for _, postals := range t.entries {
			if entry, ok := postals[postal]; ok {
				return entry
			}
		}
	}
	if zone, ok := t.modal[prefix(postal)]; ok {
		return ZoneEntry{Zone: zone}
	}
	return ZoneEntry{Zone: t.Default}
}

func prefix(postal string) string {
	if len(postal) < 3 {
		return postal
	}
	return postal[:3]
}
