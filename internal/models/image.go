package models

// RestaurantImage is gallery metadata for a restaurant. Position orders the
// carousel; the bytes themselves live behind the URL, not in this service.
type RestaurantImage struct {
	ID           string `db:"id" json:"id"`
	RestaurantID string `db:"restaurant_id" json:"restaurant_id"`
	URL          string `db:"url" json:"url"`
	AltText      string `db:"alt_text" json:"alt_text,omitempty"`
	Position     int    `db:"position" json:"position"`
	CreatedAt    int64  `db:"created_at" json:"created_at"`
}
