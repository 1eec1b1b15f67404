package models

// Synagogue denominations recognized by the directory.
const (
	DenomOrthodox     = "orthodox"
	DenomConservative = "conservative"
	DenomReform       = "reform"
	DenomSephardic    = "sephardic"
	DenomChabad       = "chabad"
)

// ValidDenomination reports whether s is a recognized denomination.
func ValidDenomination(s string) bool {
	switch s {
	case DenomOrthodox, DenomConservative, DenomReform, DenomSephardic, DenomChabad:
		return true
	}
	return false
}

// Synagogue is a house of worship in the directory.
type Synagogue struct {
	ID           string  `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	Denomination string  `db:"denomination" json:"denomination"`
	Address      string  `db:"address" json:"address"`
	City         string  `db:"city" json:"city"`
	State        string  `db:"state" json:"state"`
	Zip          string  `db:"zip" json:"zip,omitempty"`
	Phone        string  `db:"phone" json:"phone,omitempty"`
	Website      string  `db:"website" json:"website,omitempty"`
	Latitude     float64 `db:"latitude" json:"latitude"`
	Longitude    float64 `db:"longitude" json:"longitude"`
	Hours        string  `db:"hours" json:"hours,omitempty"`
	Status       string  `db:"status" json:"status"`
	CreatedAt    int64   `db:"created_at" json:"created_at"`
	UpdatedAt    int64   `db:"updated_at" json:"updated_at"`

	DistanceKm *float64 `db:"-" json:"distance_km,omitempty"`
}

// Mikvah kinds.
const (
	MikvahWomen  = "women"
	MikvahMen    = "men"
	MikvahKeilim = "keilim"
)

// ValidMikvahKind reports whether s is a recognized mikvah kind.
func ValidMikvahKind(s string) bool {
	switch s {
	case MikvahWomen, MikvahMen, MikvahKeilim:
		return true
	}
	return false
}

// Mikvah is a ritual bath in the directory.
type Mikvah struct {
	ID                  string  `db:"id" json:"id"`
	Name                string  `db:"name" json:"name"`
	Kind                string  `db:"kind" json:"kind"`
	Address             string  `db:"address" json:"address"`
	City                string  `db:"city" json:"city"`
	State               string  `db:"state" json:"state"`
	Zip                 string  `db:"zip" json:"zip,omitempty"`
	Phone               string  `db:"phone" json:"phone,omitempty"`
	AppointmentRequired bool    `db:"appointment_required" json:"appointment_required"`
	Latitude            float64 `db:"latitude" json:"latitude"`
	Longitude           float64 `db:"longitude" json:"longitude"`
	Hours               string  `db:"hours" json:"hours,omitempty"`
	Status              string  `db:"status" json:"status"`
	CreatedAt           int64   `db:"created_at" json:"created_at"`
	UpdatedAt           int64   `db:"updated_at" json:"updated_at"`

	DistanceKm *float64 `db:"-" json:"distance_km,omitempty"`
}
