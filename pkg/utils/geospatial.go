package utils

import (
	"math"
	"sort"
)

const earthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between two points given
// in degrees. Urban-scale inputs only; poles and the antimeridian are not
// special-cased.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// IsWithinRadius is inclusive: a point exactly radiusMeters away is inside.
func IsWithinRadius(centerLat, centerLon, pointLat, pointLon, radiusMeters float64) bool {
	return HaversineMeters(centerLat, centerLon, pointLat, pointLon) <= radiusMeters
}

// Point is a coordinate with an opaque key used to map results back.
type Point struct {
	Key string
	Lat float64
	Lon float64
}

// Ranked is a Point with its distance from the query origin.
type Ranked struct {
	Point
	DistanceMeters float64
}

// Nearest orders points by distance from (lat, lon) and keeps at most limit.
func Nearest(lat, lon float64, points []Point, limit int) []Ranked {
	ranked := make([]Ranked, 0, len(points))
	for _, p := range points {
		ranked = append(ranked, Ranked{Point: p, DistanceMeters: HaversineMeters(lat, lon, p.Lat, p.Lon)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceMeters < ranked[j].DistanceMeters
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// OffsetMeters moves a point north and east by the given distances. Handy
// for building fixtures at a known distance.
func OffsetMeters(lat, lon, north, east float64) (float64, float64) {
	dLat := north / earthRadiusMeters * 180 / math.Pi
	dLon := east / (earthRadiusMeters * math.Cos(lat*math.Pi/180)) * 180 / math.Pi
	return lat + dLat, lon + dLon
}
