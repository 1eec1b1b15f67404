package httpapi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

// restaurantSorts are the sort keys the public list accepts.
var restaurantSorts = map[string]bool{
	"rating":   true,
	"newest":   true,
	"name":     true,
	"distance": true,
}

// ParseRestaurantFilter reads restaurant list filters from a query string.
// Status is deliberately not parsed: the public surface pins it to approved
// and the admin handlers set their own.
func ParseRestaurantFilter(values url.Values) (*storage.RestaurantFilter, error) {
	f := &storage.RestaurantFilter{
		Query:  strings.TrimSpace(values.Get("q")),
		City:   strings.TrimSpace(values.Get("city")),
		State:  strings.TrimSpace(values.Get("state")),
		Agency: strings.TrimSpace(values.Get("agency")),
	}

	if v := values.Get("kosher_category"); v != "" {
		if !models.ValidKosherCategory(v) {
			return nil, fmt.Errorf("unknown kosher_category %q", v)
		}
		f.KosherCategory = v
	}

	if v := values.Get("min_rating"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r < 0 || r > 5 {
			return nil, fmt.Errorf("min_rating must be a number between 0 and 5")
		}
		f.MinRating = r
	}

	var err error
	if f.CholovYisroel, err = parseOptionalBool(values, "cholov_yisroel"); err != nil {
		return nil, err
	}
	if f.PasYisroel, err = parseOptionalBool(values, "pas_yisroel"); err != nil {
		return nil, err
	}

	if v := values.Get("open_now"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("open_now must be a boolean")
		}
		f.OpenNow = b
	}

	if f.Lat, f.Lng, err = parseLatLng(values); err != nil {
		return nil, err
	}

	if v := values.Get("radius_km"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r <= 0 {
			return nil, fmt.Errorf("radius_km must be a positive number")
		}
		if !f.HasGeo() {
			return nil, fmt.Errorf("radius_km requires lat and lng")
		}
		f.RadiusKm = r
	}

	if v := values.Get("sort"); v != "" {
		if !restaurantSorts[v] {
			return nil, fmt.Errorf("unknown sort %q", v)
		}
		if v == "distance" && !f.HasGeo() {
			return nil, fmt.Errorf("sort=distance requires lat and lng")
		}
		f.Sort = v
	}

	if f.Page, err = parseOptionalInt(values, "page"); err != nil {
		return nil, err
	}
	if f.Limit, err = parseOptionalInt(values, "limit"); err != nil {
		return nil, err
	}

	return f, nil
}

// EncodeRestaurantFilter renders the filter as a canonical query string:
// keys sorted, defaults omitted. Requests that differ only in parameter
// order or defaults share the encoding, which keys list caches.
func EncodeRestaurantFilter(f *storage.RestaurantFilter) string {
	v := url.Values{}

	setNonEmpty := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	setNonEmpty("q", f.Query)
	setNonEmpty("city", f.City)
	setNonEmpty("state", f.State)
	setNonEmpty("agency", f.Agency)
	setNonEmpty("kosher_category", f.KosherCategory)
	setNonEmpty("sort", f.Sort)

	if f.MinRating > 0 {
		v.Set("min_rating", formatFloat(f.MinRating))
	}
	if f.CholovYisroel != nil {
		v.Set("cholov_yisroel", strconv.FormatBool(*f.CholovYisroel))
	}
	if f.PasYisroel != nil {
		v.Set("pas_yisroel", strconv.FormatBool(*f.PasYisroel))
	}
	if f.OpenNow {
		v.Set("open_now", "true")
	}
	if f.HasGeo() {
		v.Set("lat", formatFloat(*f.Lat))
		v.Set("lng", formatFloat(*f.Lng))
	}
	if f.RadiusKm > 0 {
		v.Set("radius_km", formatFloat(f.RadiusKm))
	}
	if f.Page > 1 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 && f.Limit != 20 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}

	return v.Encode()
}

func parseOptionalBool(values url.Values, key string) (*bool, error) {
	v := values.Get(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be a boolean", key)
	}
	return &b, nil
}

func parseOptionalInt(values url.Values, key string) (int, error) {
	v := values.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

// parseLatLng requires both coordinates or neither.
func parseLatLng(values url.Values) (*float64, *float64, error) {
	latStr, lngStr := values.Get("lat"), values.Get("lng")
	if latStr == "" && lngStr == "" {
		return nil, nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, nil, fmt.Errorf("lat and lng must be provided together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, nil, fmt.Errorf("lat must be a number between -90 and 90")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, nil, fmt.Errorf("lng must be a number between -180 and 180")
	}
	return &lat, &lng, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
