package models

// Listing statuses shared by all moderated entities (restaurants, reviews,
// synagogues, mikvahs, marketplace listings). New submissions start as pending
// and only approved records are visible on the public API.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	// StatusSold applies to marketplace listings only.
	StatusSold = "sold"
)

// ValidStatus reports whether s is a moderation status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}
