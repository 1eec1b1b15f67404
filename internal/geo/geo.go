// Package geo provides the distance math used by location-aware listings.
package geo

import (
	"math"
	"sort"
)

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between two
// coordinates.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Box is a latitude/longitude bounding rectangle.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Contains reports whether the point lies inside the box.
func (b Box) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// BoundingBox returns a box guaranteed to contain the circle of radiusKm
// around the center. It is used to pre-filter rows in SQL before the exact
// Haversine check; near the poles or across the antimeridian the longitude
// span widens to the full range rather than wrapping.
func BoundingBox(lat, lng, radiusKm float64) Box {
	if radiusKm < 0 {
		radiusKm = 0
	}
	latDelta := radiusKm / earthRadiusKm * 180 / math.Pi

	box := Box{
		MinLat: math.Max(lat-latDelta, -90),
		MaxLat: math.Min(lat+latDelta, 90),
	}

	cos := math.Cos(lat * math.Pi / 180)
	if cos <= 0 {
		box.MinLng, box.MaxLng = -180, 180
		return box
	}
	lngDelta := latDelta / cos
	if lngDelta >= 180 || lng-lngDelta < -180 || lng+lngDelta > 180 {
		box.MinLng, box.MaxLng = -180, 180
		return box
	}
	box.MinLng = lng - lngDelta
	box.MaxLng = lng + lngDelta
	return box
}

// SortByDistance orders rows closest first by their annotated distance.
// Rows without a distance sort after every row that carries one; ties keep
// their current order.
func SortByDistance[T any](rows []T, dist func(T) *float64) {
	sort.SliceStable(rows, func(i, j int) bool {
		di, dj := dist(rows[i]), dist(rows[j])
		if di == nil || dj == nil {
			return dj == nil && di != nil
		}
		return *di < *dj
	})
}
