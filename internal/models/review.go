package models

// Review is a user-submitted rating of a restaurant. Reviews start pending
// and only count toward the restaurant's rating aggregate once approved.
type Review struct {
	ID           string `db:"id" json:"id"`
	RestaurantID string `db:"restaurant_id" json:"restaurant_id"`
	UserID       string `db:"user_id" json:"user_id"`
	AuthorName   string `db:"author_name" json:"author_name"`
	Rating       int    `db:"rating" json:"rating"`
	Content      string `db:"content" json:"content"`
	Status       string `db:"status" json:"status"`
	CreatedAt    int64  `db:"created_at" json:"created_at"`
	UpdatedAt    int64  `db:"updated_at" json:"updated_at"`
}

// ValidRating reports whether n is an allowed star rating.
func ValidRating(n int) bool {
	return n >= 1 && n <= 5
}
