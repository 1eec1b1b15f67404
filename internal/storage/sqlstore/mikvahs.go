package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/levipshemish/jewgo-api/internal/geo"
	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

const mikvahCols = `id, name, kind, address, city, state, zip, phone, appointment_required,
	latitude, longitude, hours, status, created_at, updated_at`

// CreateMikvah persists a new mikvah, defaulting to pending.
func (s *Store) CreateMikvah(ctx context.Context, m *models.Mikvah) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if m.CreatedAt == 0 {
		m.CreatedAt = now
	}
	if m.UpdatedAt == 0 {
		m.UpdatedAt = now
	}
	if m.Status == "" {
		m.Status = models.StatusPending
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO mikvahs
			(id, name, kind, address, city, state, zip, phone, appointment_required,
			 latitude, longitude, hours, status, created_at, updated_at)
		VALUES
			(:id, :name, :kind, :address, :city, :state, :zip, :phone, :appointment_required,
			 :latitude, :longitude, :hours, :status, :created_at, :updated_at)
	`, m)
	if err != nil {
		return fmt.Errorf("failed to insert mikvah: %w", err)
	}
	return nil
}

// GetMikvah retrieves a mikvah by ID.
func (s *Store) GetMikvah(ctx context.Context, id string) (*models.Mikvah, error) {
	m := &models.Mikvah{}
	err := s.db.GetContext(ctx, m,
		"SELECT "+mikvahCols+" FROM mikvahs WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mikvah: %w", err)
	}
	return m, nil
}

// UpdateMikvah updates every stored field of an existing mikvah.
func (s *Store) UpdateMikvah(ctx context.Context, m *models.Mikvah) error {
	m.UpdatedAt = time.Now().Unix()

	res, err := s.db.NamedExecContext(ctx, `
		UPDATE mikvahs SET
			name = :name,
			kind = :kind,
			address = :address,
			city = :city,
			state = :state,
			zip = :zip,
			phone = :phone,
			appointment_required = :appointment_required,
			latitude = :latitude,
			longitude = :longitude,
			hours = :hours,
			status = :status,
			updated_at = :updated_at
		WHERE id = :id
	`, m)
	if err != nil {
		return fmt.Errorf("failed to update mikvah: %w", err)
	}
	return requireRow(res)
}

// DeleteMikvah removes a mikvah.
func (s *Store) DeleteMikvah(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM mikvahs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete mikvah: %w", err)
	}
	return requireRow(res)
}

// ListMikvahs returns mikvahs matching the filter plus the total count.
func (s *Store) ListMikvahs(ctx context.Context, f storage.VenueFilter) ([]*models.Mikvah, int, error) {
	w := venueWhere(&f, "kind", f.Kind)

	postFilter := f.HasGeo() && (f.RadiusKm > 0 || f.Sort == "distance")
	if !postFilter {
		total, err := s.count(ctx, "mikvahs", w)
		if err != nil {
			return nil, 0, err
		}

		limit, offset := storage.Window(f.Page, f.Limit)
		query := "SELECT " + mikvahCols + " FROM mikvahs" + w.clause() + venueOrder(f.Sort) +
			fmt.Sprintf(" LIMIT $%d OFFSET $%d", w.next(), w.next()+1)
		args := append(w.args, limit, offset)

		var rows []*models.Mikvah
		if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
			return nil, 0, fmt.Errorf("failed to list mikvahs: %w", err)
		}
		if f.HasGeo() {
			for _, m := range rows {
				if m.Latitude != 0 || m.Longitude != 0 {
					d := geo.Haversine(*f.Lat, *f.Lng, m.Latitude, m.Longitude)
					m.DistanceKm = &d
				}
			}
		}
		return rows, total, nil
	}

	var rows []*models.Mikvah
	query := "SELECT " + mikvahCols + " FROM mikvahs" + w.clause() + " ORDER BY created_at DESC, id"
	if err := s.db.SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list mikvahs: %w", err)
	}

	kept := rows[:0]
	for _, m := range rows {
		if m.Latitude == 0 && m.Longitude == 0 {
			if f.RadiusKm > 0 {
				continue
			}
			kept = append(kept, m)
			continue
		}
		d := geo.Haversine(*f.Lat, *f.Lng, m.Latitude, m.Longitude)
		if f.RadiusKm > 0 && d > f.RadiusKm {
			continue
		}
		m.DistanceKm = &d
		kept = append(kept, m)
	}
	rows = kept

	if f.Sort == "distance" {
		geo.SortByDistance(rows, func(m *models.Mikvah) *float64 { return m.DistanceKm })
	}

	total := len(rows)
	return pageSlice(rows, f.Page, f.Limit), total, nil
}
