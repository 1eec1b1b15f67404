// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/levipshemish/jewgo-api/internal/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist. Driver
	// sentinels like sql.ErrNoRows never escape the store.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned when a user insert collides with an
	// existing email.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Window clamps pagination to sane bounds and converts it to a LIMIT/OFFSET
// pair. Limit defaults to 20 and caps at 100; page numbers start at 1.
func Window(page, limit int) (int, int) {
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// RestaurantFilter narrows ListRestaurants. The zero value lists everything.
// Filters compose as AND. Query is a case-insensitive substring match over
// name and city.
type RestaurantFilter struct {
	Query          string
	City           string
	State          string
	Agency         string
	KosherCategory string
	Status         string
	MinRating      float64
	CholovYisroel  *bool
	PasYisroel     *bool

	// OpenNow keeps only venues whose hours parse and include Now in the
	// venue's timezone (Location when the venue has none). Venues with
	// missing or unparseable hours are kept: unknown is not closed.
	OpenNow  bool
	Now      time.Time
	Location *time.Location

	// Lat/Lng enable distance computation; RadiusKm > 0 additionally
	// restricts results to the circle.
	Lat      *float64
	Lng      *float64
	RadiusKm float64

	// Sort is one of rating, newest, name, distance. Distance requires
	// Lat/Lng and is otherwise ignored.
	Sort string

	Page  int
	Limit int

	// All disables pagination. Used by CSV export.
	All bool
}

// HasGeo reports whether the filter carries a usable origin point.
func (f *RestaurantFilter) HasGeo() bool {
	return f.Lat != nil && f.Lng != nil
}

// VenueFilter narrows synagogue and mikvah listings. Denomination applies
// only to synagogues, Kind only to mikvahs.
type VenueFilter struct {
	Query        string
	City         string
	State        string
	Denomination string
	Kind         string
	Status       string

	Lat      *float64
	Lng      *float64
	RadiusKm float64
	Sort     string

	Page  int
	Limit int
}

// HasGeo reports whether the filter carries a usable origin point.
func (f *VenueFilter) HasGeo() bool {
	return f.Lat != nil && f.Lng != nil
}

// ListingFilter narrows marketplace listings.
type ListingFilter struct {
	Query         string
	Category      string
	City          string
	State         string
	Status        string
	SellerID      string
	MinPriceCents int64
	MaxPriceCents int64

	// Sort is one of newest, price_asc, price_desc.
	Sort string

	Page  int
	Limit int
}

// ReviewFilter narrows review listings.
type ReviewFilter struct {
	RestaurantID string
	UserID       string
	Status       string

	Page  int
	Limit int

	// All disables pagination. Used by CSV export.
	All bool
}

// UserFilter narrows user listings. Query matches email and display name.
type UserFilter struct {
	Query string
	Role  string

	Page  int
	Limit int
}

// AuditFilter narrows the audit trail.
type AuditFilter struct {
	AdminID    string
	EntityType string
	Action     string

	Page  int
	Limit int
}

// Stats counts rows per status for the admin dashboard.
type Stats struct {
	Restaurants map[string]int64 `json:"restaurants"`
	Reviews     map[string]int64 `json:"reviews"`
	Synagogues  map[string]int64 `json:"synagogues"`
	Mikvahs     map[string]int64 `json:"mikvahs"`
	Listings    map[string]int64 `json:"listings"`
	Users       int64            `json:"users"`
}

// Store defines the interface for directory storage operations.
// This abstraction allows swapping storage backends (PostgreSQL, SQLite)
// without changing the service layer.
//
// All list operations order deterministically (newest first, ID as the
// tiebreak) and return the total row count for the same filter.
type Store interface {
	// Restaurants
	CreateRestaurant(ctx context.Context, r *models.Restaurant) error
	GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error)
	UpdateRestaurant(ctx context.Context, r *models.Restaurant) error
	DeleteRestaurant(ctx context.Context, id string) error
	ListRestaurants(ctx context.Context, f RestaurantFilter) ([]*models.Restaurant, int, error)
	GetRestaurantsByCity(ctx context.Context, city, state string) ([]*models.Restaurant, error)

	// Batch operations used by admin bulk actions. Each runs in a single
	// transaction and reports the number of rows affected. An empty ID
	// list is a no-op.
	UpdateRestaurantStatuses(ctx context.Context, ids []string, status string) (int, error)
	UpdateRestaurantAgencies(ctx context.Context, ids []string, agency string) (int, error)
	DeleteRestaurants(ctx context.Context, ids []string) (int, error)

	// Reviews
	CreateReview(ctx context.Context, rv *models.Review) error
	GetReview(ctx context.Context, id string) (*models.Review, error)
	UpdateReview(ctx context.Context, rv *models.Review) error
	DeleteReview(ctx context.Context, id string) error
	ListReviews(ctx context.Context, f ReviewFilter) ([]*models.Review, int, error)

	// RecalcRestaurantRating recomputes the rating aggregate from approved
	// reviews in one transaction.
	RecalcRestaurantRating(ctx context.Context, restaurantID string) error

	// Images
	CreateImage(ctx context.Context, img *models.RestaurantImage) error
	GetImage(ctx context.Context, id string) (*models.RestaurantImage, error)
	UpdateImage(ctx context.Context, img *models.RestaurantImage) error
	DeleteImage(ctx context.Context, id string) error
	ListImages(ctx context.Context, restaurantID string) ([]*models.RestaurantImage, error)
	ReorderImages(ctx context.Context, restaurantID string, orderedIDs []string) error

	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserRole(ctx context.Context, id string, role models.Role) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, f UserFilter) ([]*models.User, int, error)

	// Synagogues
	CreateSynagogue(ctx context.Context, s *models.Synagogue) error
	GetSynagogue(ctx context.Context, id string) (*models.Synagogue, error)
	UpdateSynagogue(ctx context.Context, s *models.Synagogue) error
	DeleteSynagogue(ctx context.Context, id string) error
	ListSynagogues(ctx context.Context, f VenueFilter) ([]*models.Synagogue, int, error)

	// Mikvahs
	CreateMikvah(ctx context.Context, m *models.Mikvah) error
	GetMikvah(ctx context.Context, id string) (*models.Mikvah, error)
	UpdateMikvah(ctx context.Context, m *models.Mikvah) error
	DeleteMikvah(ctx context.Context, id string) error
	ListMikvahs(ctx context.Context, f VenueFilter) ([]*models.Mikvah, int, error)

	// Marketplace
	CreateListing(ctx context.Context, l *models.Listing) error
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	UpdateListing(ctx context.Context, l *models.Listing) error
	DeleteListing(ctx context.Context, id string) error
	ListListings(ctx context.Context, f ListingFilter) ([]*models.Listing, int, error)

	// Audit
	AppendAudit(ctx context.Context, e *models.AuditEntry) error
	ListAudit(ctx context.Context, f AuditFilter) ([]*models.AuditEntry, int, error)

	// CountByStatus aggregates per-status row counts for the dashboard.
	CountByStatus(ctx context.Context) (*Stats, error)

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
