package ratecard

import (
	"encoding/json"
	"fmt"
	"os"
)

// carrierFile is the on-disk shape of a carrier contract. It matches
// Carrier except that zone tables travel as plain maps; the indexed
// ZoneTable is rebuilt on load.
type carrierFile struct {
	Code  string     `json:"code"`
	Cards []cardFile `json:"cards"`
}

type cardFile struct {
	Card
	Zones zoneFile `json:"zones"`
}

type zoneFile struct {
	Default string                          `json:"default"`
	Entries map[string]map[string]ZoneEntry `json:"entries"` // origin -> postal -> entry
}

// LoadCarrier reads one carrier contract from a JSON file and validates
// every card. Load failures and malformed cards are fatal; a run must
// never proceed on reference data it could not fully parse.
func LoadCarrier(path string) (*Carrier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading carrier contract %s: %w", path, err)
	}

	var file carrierFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing carrier contract %s: %w", path, err)
	}
	if file.Code == "" {
		return nil, fmt.Errorf("carrier contract %s: missing carrier code", path)
	}

	carrier := &Carrier{Code: file.Code}
	for i := range file.Cards {
		card := file.Cards[i].Card
		card.Zones = NewZoneTable(file.Cards[i].Zones.Default, file.Cards[i].Zones.Entries)
		if card.Carrier == "" {
			card.Carrier = file.Code
		}
		if err := card.Validate(); err != nil {
			return nil, err
		}
		carrier.Cards = append(carrier.Cards, &card)
	}
	return carrier, nil
}

// LoadCarriers loads one contract per file.
func LoadCarriers(paths []string) ([]*Carrier, error) {
	carriers := make([]*Carrier, 0, len(paths))
	for _, path := range paths {
		c, err := LoadCarrier(path)
		if err != nil {
			return nil, err
		}
		carriers = append(carriers, c)
	}
	return carriers, nil
}
