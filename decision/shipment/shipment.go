// Package shipment provides the shipment input model and the
// dimensional preprocessor that derives rating attributes from raw
// package dimensions.
package shipment

import (
	"math"
	"time"
)

// Shipment is a single parcel record. Immutable once created; the
// rating pipeline only reads it.
type Shipment struct {
	ID string `json:"id"`

	// Physical attributes (inches, pounds)
	Length       float64 `json:"length"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	ActualWeight float64 `json:"actual_weight"`

	ShipDate       time.Time `json:"ship_date"`
	OriginFacility string    `json:"origin_facility"`
	DestPostal     string    `json:"dest_postal"`
	PackageType    string    `json:"package_type"`
}

// Dims holds the derived dimensional attributes every rating rule
// keys off. All raw sides are rounded to 1 decimal before any
// threshold comparison so that a nominal 48.0" side never trips a
// strictly-greater 48" trigger through float noise.
type Dims struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Volume          float64 `json:"volume"`            // cubic inches, rounded to 0 decimals
	Longest         float64 `json:"longest"`           // longest side
	SecondLongest   float64 `json:"second_longest"`    // median side
	LengthPlusGirth float64 `json:"length_plus_girth"` // longest + 2*(sum of other two)
}

// ComputeDims derives dimensional attributes for a shipment.
// Pure function; no failure modes.
func ComputeDims(s Shipment) Dims {
	l := Round1(s.Length)
	w := Round1(s.Width)
	h := Round1(s.Height)

	longest, second, shortest := sortSides(l, w, h)

	return Dims{
		Length:          l,
		Width:           w,
		Height:          h,
		Volume:          math.Round(l * w * h),
		Longest:         longest,
		SecondLongest:   second,
		LengthPlusGirth: longest + 2*(second+shortest),
	}
}

// Round1 rounds to 1 decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func sortSides(a, b, c float64) (longest, second, shortest float64) {
	longest, second, shortest = a, b, c
	if second > longest {
		longest, second = second, longest
	}
	if shortest > longest {
		longest, shortest = shortest, longest
	}
	if shortest > second {
		second, shortest = shortest, second
	}
	return longest, second, shortest
}
