package models

// Listing is a marketplace item posted by a registered (non-guest) user.
// PriceCents avoids float money; zero means "free" or "contact seller".
type Listing struct {
	ID          string `db:"id" json:"id"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description,omitempty"`
	PriceCents  int64  `db:"price_cents" json:"price_cents"`
	Category    string `db:"category" json:"category"`
	SellerID    string `db:"seller_id" json:"seller_id"`
	City        string `db:"city" json:"city"`
	State       string `db:"state" json:"state"`
	Status      string `db:"status" json:"status"`
	CreatedAt   int64  `db:"created_at" json:"created_at"`
	UpdatedAt   int64  `db:"updated_at" json:"updated_at"`
}
