package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

const listingCols = "id, title, description, price_cents, category, seller_id, city, state, status, created_at, updated_at"

// CreateListing persists a new marketplace listing, defaulting to pending.
func (s *Store) CreateListing(ctx context.Context, l *models.Listing) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if l.CreatedAt == 0 {
		l.CreatedAt = now
	}
	if l.UpdatedAt == 0 {
		l.UpdatedAt = now
	}
	if l.Status == "" {
		l.Status = models.StatusPending
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO listings
			(id, title, description, price_cents, category, seller_id, city, state, status, created_at, updated_at)
		VALUES
			(:id, :title, :description, :price_cents, :category, :seller_id, :city, :state, :status, :created_at, :updated_at)
	`, l)
	if err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	return nil
}

// GetListing retrieves a listing by ID.
func (s *Store) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	l := &models.Listing{}
	err := s.db.GetContext(ctx, l,
		"SELECT "+listingCols+" FROM listings WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return l, nil
}

// UpdateListing updates the mutable fields of an existing listing.
func (s *Store) UpdateListing(ctx context.Context, l *models.Listing) error {
	l.UpdatedAt = time.Now().Unix()

	res, err := s.db.NamedExecContext(ctx, `
		UPDATE listings SET
			title = :title,
			description = :description,
			price_cents = :price_cents,
			category = :category,
			city = :city,
			state = :state,
			status = :status,
			updated_at = :updated_at
		WHERE id = :id
	`, l)
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}
	return requireRow(res)
}

// DeleteListing removes a listing.
func (s *Store) DeleteListing(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM listings WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	return requireRow(res)
}

// ListListings returns marketplace listings matching the filter plus the
// total count.
func (s *Store) ListListings(ctx context.Context, f storage.ListingFilter) ([]*models.Listing, int, error) {
	w := &whereBuilder{}
	if f.Status != "" {
		w.add("status = $%d", f.Status)
	}
	if f.Query != "" {
		p := likePattern(f.Query)
		w.add("(lower(title) LIKE $%d OR lower(description) LIKE $%d)", p, p)
	}
	if f.Category != "" {
		w.add("category = $%d", f.Category)
	}
	if f.City != "" {
		w.add("lower(city) = $%d", strings.ToLower(f.City))
	}
	if f.State != "" {
		w.add("lower(state) = $%d", strings.ToLower(f.State))
	}
	if f.SellerID != "" {
		w.add("seller_id = $%d", f.SellerID)
	}
	if f.MinPriceCents > 0 {
		w.add("price_cents >= $%d", f.MinPriceCents)
	}
	if f.MaxPriceCents > 0 {
		w.add("price_cents <= $%d", f.MaxPriceCents)
	}

	total, err := s.count(ctx, "listings", w)
	if err != nil {
		return nil, 0, err
	}

	limit, offset := storage.Window(f.Page, f.Limit)
	query := "SELECT " + listingCols + " FROM listings" + w.clause() + listingOrder(f.Sort) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", w.next(), w.next()+1)
	args := append(w.args, limit, offset)

	var rows []*models.Listing
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list listings: %w", err)
	}
	return rows, total, nil
}

func listingOrder(sortKey string) string {
	switch sortKey {
	case "price_asc":
		return " ORDER BY price_cents, id"
	case "price_desc":
		return " ORDER BY price_cents DESC, id"
	default:
		return " ORDER BY created_at DESC, id"
	}
}
