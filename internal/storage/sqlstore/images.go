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

const imageCols = "id, restaurant_id, url, alt_text, position, created_at"

// CreateImage persists gallery metadata for a restaurant. When no position
// is set the image is appended after the current last one.
func (s *Store) CreateImage(ctx context.Context, img *models.RestaurantImage) error {
	if img.ID == "" {
		img.ID = uuid.New().String()
	}
	if img.CreatedAt == 0 {
		img.CreatedAt = time.Now().Unix()
	}
	if img.Position == 0 {
		var next sql.NullInt64
		err := s.db.GetContext(ctx, &next,
			"SELECT MAX(position) + 1 FROM restaurant_images WHERE restaurant_id = $1",
			img.RestaurantID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to pick image position: %w", err)
		}
		if next.Valid {
			img.Position = int(next.Int64)
		}
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO restaurant_images (id, restaurant_id, url, alt_text, position, created_at)
		VALUES (:id, :restaurant_id, :url, :alt_text, :position, :created_at)
	`, img)
	if err != nil {
		return fmt.Errorf("failed to insert image: %w", err)
	}
	return nil
}

// GetImage retrieves image metadata by ID.
func (s *Store) GetImage(ctx context.Context, id string) (*models.RestaurantImage, error) {
	img := &models.RestaurantImage{}
	err := s.db.GetContext(ctx, img,
		"SELECT "+imageCols+" FROM restaurant_images WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return img, nil
}

// UpdateImage updates the URL, alt text and position of an image.
func (s *Store) UpdateImage(ctx context.Context, img *models.RestaurantImage) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE restaurant_images SET
			url = :url,
			alt_text = :alt_text,
			position = :position
		WHERE id = :id
	`, img)
	if err != nil {
		return fmt.Errorf("failed to update image: %w", err)
	}
	return requireRow(res)
}

// DeleteImage removes image metadata.
func (s *Store) DeleteImage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM restaurant_images WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return requireRow(res)
}

// ListImages returns a restaurant's gallery ordered by position.
func (s *Store) ListImages(ctx context.Context, restaurantID string) ([]*models.RestaurantImage, error) {
	var rows []*models.RestaurantImage
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+imageCols+" FROM restaurant_images WHERE restaurant_id = $1 ORDER BY position, created_at, id",
		restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return rows, nil
}

// ReorderImages rewrites gallery positions to match orderedIDs. Every ID
// must belong to the restaurant or the whole reorder rolls back with
// ErrNotFound.
func (s *Store) ReorderImages(ctx context.Context, restaurantID string, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, id := range orderedIDs {
		res, err := tx.ExecContext(ctx,
			"UPDATE restaurant_images SET position = $1 WHERE id = $2 AND restaurant_id = $3",
			i, id, restaurantID)
		if err != nil {
			return fmt.Errorf("failed to reposition image: %w", err)
		}
		if err := requireRow(res); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
