package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

const reviewCols = "id, restaurant_id, user_id, author_name, rating, content, status, created_at, updated_at"

// CreateReview persists a new review. New reviews default to pending so
// they never count toward a rating before moderation.
func (s *Store) CreateReview(ctx context.Context, rv *models.Review) error {
	if rv.ID == "" {
		rv.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if rv.CreatedAt == 0 {
		rv.CreatedAt = now
	}
	if rv.UpdatedAt == 0 {
		rv.UpdatedAt = now
	}
	if rv.Status == "" {
		rv.Status = models.StatusPending
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO reviews
			(id, restaurant_id, user_id, author_name, rating, content, status, created_at, updated_at)
		VALUES
			(:id, :restaurant_id, :user_id, :author_name, :rating, :content, :status, :created_at, :updated_at)
	`, rv)
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// GetReview retrieves a review by ID.
func (s *Store) GetReview(ctx context.Context, id string) (*models.Review, error) {
	rv := &models.Review{}
	err := s.db.GetContext(ctx, rv,
		"SELECT "+reviewCols+" FROM reviews WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return rv, nil
}

// UpdateReview updates the mutable fields of an existing review.
func (s *Store) UpdateReview(ctx context.Context, rv *models.Review) error {
	rv.UpdatedAt = time.Now().Unix()

	res, err := s.db.NamedExecContext(ctx, `
		UPDATE reviews SET
			author_name = :author_name,
			rating = :rating,
			content = :content,
			status = :status,
			updated_at = :updated_at
		WHERE id = :id
	`, rv)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	return requireRow(res)
}

// DeleteReview removes a review.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return requireRow(res)
}

// ListReviews returns reviews matching the filter plus the total count.
func (s *Store) ListReviews(ctx context.Context, f storage.ReviewFilter) ([]*models.Review, int, error) {
	w := &whereBuilder{}
	if f.RestaurantID != "" {
		w.add("restaurant_id = $%d", f.RestaurantID)
	}
	if f.UserID != "" {
		w.add("user_id = $%d", f.UserID)
	}
	if f.Status != "" {
		w.add("status = $%d", f.Status)
	}

	total, err := s.count(ctx, "reviews", w)
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT " + reviewCols + " FROM reviews" + w.clause() + " ORDER BY created_at DESC, id"
	args := w.args
	if !f.All {
		limit, offset := storage.Window(f.Page, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", w.next(), w.next()+1)
		args = append(args, limit, offset)
	}

	var rows []*models.Review
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	return rows, total, nil
}

// RecalcRestaurantRating recomputes a restaurant's rating aggregate from
// its approved reviews in one transaction.
func (s *Store) RecalcRestaurantRating(ctx context.Context, restaurantID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var agg struct {
		Avg   float64 `db:"avg_rating"`
		Count int64   `db:"review_count"`
	}
	err = tx.GetContext(ctx, &agg, `
		SELECT COALESCE(AVG(rating), 0) AS avg_rating, COUNT(*) AS review_count
		FROM reviews
		WHERE restaurant_id = $1 AND status = $2
	`, restaurantID, models.StatusApproved)
	if err != nil {
		return fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE restaurants SET rating_avg = $1, rating_count = $2, updated_at = $3 WHERE id = $4
	`, agg.Avg, agg.Count, time.Now().Unix(), restaurantID)
	if err != nil {
		return fmt.Errorf("failed to update rating aggregate: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
