package geo

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		wantKm                 float64
	}{
		{
			name: "same point",
			lat1: 25.7617, lng1: -80.1918,
			lat2: 25.7617, lng2: -80.1918,
			wantKm: 0,
		},
		{
			// Miami -> Boca Raton, the directory's home turf.
			name: "miami to boca raton",
			lat1: 25.7617, lng1: -80.1918,
			lat2: 26.3683, lng2: -80.1289,
			wantKm: 67.8,
		},
		{
			name: "new york to los angeles",
			lat1: 40.7128, lng1: -74.0060,
			lat2: 34.0522, lng2: -118.2437,
			wantKm: 3935.7,
		},
		{
			name: "across the equator",
			lat1: 1.0, lng1: 10.0,
			lat2: -1.0, lng2: 10.0,
			wantKm: 222.4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			// Within 0.5% of the reference distance.
			tolerance := tt.wantKm * 0.005
			if tolerance < 0.01 {
				tolerance = 0.01
			}
			if math.Abs(got-tt.wantKm) > tolerance {
				t.Errorf("Haversine() = %.2f km, want %.2f km", got, tt.wantKm)
			}
		})
	}
}

func TestHaversineSymmetry(t *testing.T) {
	ab := Haversine(25.79, -80.13, 26.01, -80.14)
	ba := Haversine(26.01, -80.14, 25.79, -80.13)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", ab, ba)
	}
}

func TestBoundingBoxContainsCircle(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		radiusKm float64
	}{
		{name: "miami 10km", lat: 25.7617, lng: -80.1918, radiusKm: 10},
		{name: "miami 100km", lat: 25.7617, lng: -80.1918, radiusKm: 100},
		{name: "high latitude", lat: 68.0, lng: 20.0, radiusKm: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := BoundingBox(tt.lat, tt.lng, tt.radiusKm)

			// Sample points on the radius circle; all must fall inside the box.
			for deg := 0; deg < 360; deg += 15 {
				rad := float64(deg) * math.Pi / 180
				// Rough inverse projection good enough for the containment check.
				latDelta := tt.radiusKm / 6371.0 * 180 / math.Pi
				lat := tt.lat + latDelta*math.Cos(rad)
				lng := tt.lng + latDelta*math.Sin(rad)/math.Cos(tt.lat*math.Pi/180)
				if !box.Contains(lat, lng) {
					t.Errorf("point at bearing %d (%.4f, %.4f) outside box %+v", deg, lat, lng, box)
				}
			}
		})
	}
}

func TestBoundingBoxPoles(t *testing.T) {
	box := BoundingBox(89.9, 0, 100)
	if box.MinLng != -180 || box.MaxLng != 180 {
		t.Errorf("near-pole box should span all longitudes, got %+v", box)
	}
	if box.MaxLat > 90 {
		t.Errorf("MaxLat exceeds 90: %+v", box)
	}
}

func TestBoundingBoxAntimeridian(t *testing.T) {
	box := BoundingBox(0, 179.9, 50)
	if box.MinLng != -180 || box.MaxLng != 180 {
		t.Errorf("antimeridian box should widen to full range, got %+v", box)
	}
}

func TestSortByDistance(t *testing.T) {
	type venue struct {
		name string
		dist *float64
	}
	km := func(v float64) *float64 { return &v }

	rows := []venue{
		{name: "far", dist: km(12.5)},
		{name: "unknown-a", dist: nil},
		{name: "near", dist: km(0.4)},
		{name: "unknown-b", dist: nil},
		{name: "mid", dist: km(3.0)},
	}
	SortByDistance(rows, func(v venue) *float64 { return v.dist })

	want := []string{"near", "mid", "far", "unknown-a", "unknown-b"}
	for i, name := range want {
		if rows[i].name != name {
			t.Fatalf("order[%d] = %q, want %q (full: %+v)", i, rows[i].name, name, rows)
		}
	}
}
