package heatmap

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/yanqian/urban-heat-advisor/internal/domain/heatzone"
	apperrors "github.com/yanqian/urban-heat-advisor/pkg/errors"
)

// EarthRadiusKM is the mean Earth radius used for great-circle distances.
const EarthRadiusKM = 6371.0

const jitterSpan = 2.0

// Source supplies uniform floats in [0,1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a seeded PCG generator. It is not safe for concurrent use.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Haversine returns the great-circle distance in kilometres.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push a just past 1 for antipodal points.
	a = math.Max(0, math.Min(1, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKM * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Nearest returns the index of the closest sample location and its distance.
// Equidistant locations resolve to the earliest one in catalog order.
func Nearest(catalog *heatzone.Catalog, lat, lng float64) (int, float64, bool) {
	if catalog == nil || catalog.Len() == 0 {
		return -1, 0, false
	}
	best := -1
	bestDist := math.Inf(1)
	for i := 0; i < catalog.Len(); i++ {
		loc := catalog.Location(i)
		d := Haversine(lat, lng, loc.Latitude, loc.Longitude)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist, best >= 0
}

// Resolve estimates heat at a coordinate from the nearest sample location.
// Temperature carries ±2°C jitter drawn from rng; heat index is deterministic.
func Resolve(catalog *heatzone.Catalog, lat, lng float64, rng Source) (Reading, error) {
	idx, _, ok := Nearest(catalog, lat, lng)
	if !ok {
		return Reading{}, apperrors.Wrap(apperrors.CodeZoneLookup, "heat catalog has no sample locations", nil)
	}
	name := catalog.Location(idx).Zone
	zone, ok := catalog.Zone(name)
	if !ok {
		return Reading{}, apperrors.Wrap(apperrors.CodeZoneLookup, fmt.Sprintf("zone %q is not defined", name), nil)
	}

	jitter := rng.Float64()*2*jitterSpan - jitterSpan
	return Reading{
		Latitude:        lat,
		Longitude:       lng,
		Temperature:     round(zone.BaseTemperature+jitter, 1),
		HeatIndex:       zone.HeatIndex,
		ZoneType:        name,
		ZoneDescription: zone.Description,
		RiskLevel:       RiskLevelFor(zone.HeatIndex),
	}, nil
}

// RiskLevelFor maps a heat index to its risk tier.
func RiskLevelFor(heatIndex float64) RiskLevel {
	switch {
	case heatIndex >= 0.75:
		return RiskHigh
	case heatIndex >= 0.50:
		return RiskMedium
	default:
		return RiskLow
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
