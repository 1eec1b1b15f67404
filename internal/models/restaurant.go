package models

// Kosher categories a restaurant can be certified under.
const (
	KosherMeat   = "meat"
	KosherDairy  = "dairy"
	KosherPareve = "pareve"
)

// ValidKosherCategory reports whether s is one of the known kosher categories.
func ValidKosherCategory(s string) bool {
	switch s {
	case KosherMeat, KosherDairy, KosherPareve:
		return true
	}
	return false
}

// Restaurant is a kosher-certified eatery in the directory.
//
// Hours holds the canonical weekly-hours text understood by the hours package
// (one line per day, e.g. "Mon 11:00-22:00"). Timezone is an IANA zone name
// used when evaluating open-now; empty means the server default applies.
type Restaurant struct {
	ID             string  `db:"id" json:"id"`
	Name           string  `db:"name" json:"name"`
	Description    string  `db:"description" json:"description,omitempty"`
	Address        string  `db:"address" json:"address"`
	City           string  `db:"city" json:"city"`
	State          string  `db:"state" json:"state"`
	Zip            string  `db:"zip" json:"zip,omitempty"`
	Phone          string  `db:"phone" json:"phone,omitempty"`
	Website        string  `db:"website" json:"website,omitempty"`
	KosherCategory string  `db:"kosher_category" json:"kosher_category"`
	Agency         string  `db:"agency" json:"agency"`
	CholovYisroel  bool    `db:"cholov_yisroel" json:"cholov_yisroel"`
	PasYisroel     bool    `db:"pas_yisroel" json:"pas_yisroel"`
	PriceRange     string  `db:"price_range" json:"price_range,omitempty"`
	Latitude       float64 `db:"latitude" json:"latitude"`
	Longitude      float64 `db:"longitude" json:"longitude"`
	Timezone       string  `db:"timezone" json:"timezone,omitempty"`
	Hours          string  `db:"hours" json:"hours,omitempty"`
	ImageURL       string  `db:"image_url" json:"image_url,omitempty"`
	Status         string  `db:"status" json:"status"`
	RatingAvg      float64 `db:"rating_avg" json:"rating_avg"`
	RatingCount    int64   `db:"rating_count" json:"rating_count"`
	CreatedAt      int64   `db:"created_at" json:"created_at"`
	UpdatedAt      int64   `db:"updated_at" json:"updated_at"`

	// DistanceKm is populated by list queries when the caller supplied a
	// location; it is never stored.
	DistanceKm *float64 `db:"-" json:"distance_km,omitempty"`
}

// HasLocation reports whether the restaurant carries usable coordinates.
func (r *Restaurant) HasLocation() bool {
	return r.Latitude != 0 || r.Longitude != 0
}
