package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/levipshemish/jewgo-api/internal/geo"
	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

const synagogueCols = `id, name, denomination, address, city, state, zip, phone, website,
	latitude, longitude, hours, status, created_at, updated_at`

// CreateSynagogue persists a new synagogue, defaulting to pending.
func (s *Store) CreateSynagogue(ctx context.Context, syn *models.Synagogue) error {
	if syn.ID == "" {
		syn.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if syn.CreatedAt == 0 {
		syn.CreatedAt = now
	}
	if syn.UpdatedAt == 0 {
		syn.UpdatedAt = now
	}
	if syn.Status == "" {
		syn.Status = models.StatusPending
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO synagogues
			(id, name, denomination, address, city, state, zip, phone, website,
			 latitude, longitude, hours, status, created_at, updated_at)
		VALUES
			(:id, :name, :denomination, :address, :city, :state, :zip, :phone, :website,
			 :latitude, :longitude, :hours, :status, :created_at, :updated_at)
	`, syn)
	if err != nil {
		return fmt.Errorf("failed to insert synagogue: %w", err)
	}
	return nil
}

// GetSynagogue retrieves a synagogue by ID.
func (s *Store) GetSynagogue(ctx context.Context, id string) (*models.Synagogue, error) {
	syn := &models.Synagogue{}
	err := s.db.GetContext(ctx, syn,
		"SELECT "+synagogueCols+" FROM synagogues WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get synagogue: %w", err)
	}
	return syn, nil
}

// UpdateSynagogue updates every stored field of an existing synagogue.
func (s *Store) UpdateSynagogue(ctx context.Context, syn *models.Synagogue) error {
	syn.UpdatedAt = time.Now().Unix()

	res, err := s.db.NamedExecContext(ctx, `
		UPDATE synagogues SET
			name = :name,
			denomination = :denomination,
			address = :address,
			city = :city,
			state = :state,
			zip = :zip,
			phone = :phone,
			website = :website,
			latitude = :latitude,
			longitude = :longitude,
			hours = :hours,
			status = :status,
			updated_at = :updated_at
		WHERE id = :id
	`, syn)
	if err != nil {
		return fmt.Errorf("failed to update synagogue: %w", err)
	}
	return requireRow(res)
}

// DeleteSynagogue removes a synagogue.
func (s *Store) DeleteSynagogue(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM synagogues WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete synagogue: %w", err)
	}
	return requireRow(res)
}

// ListSynagogues returns synagogues matching the filter plus the total
// count. Radius and distance sorting refine in Go after a bounding-box
// prefilter, mirroring ListRestaurants.
func (s *Store) ListSynagogues(ctx context.Context, f storage.VenueFilter) ([]*models.Synagogue, int, error) {
	w := venueWhere(&f, "denomination", f.Denomination)

	postFilter := f.HasGeo() && (f.RadiusKm > 0 || f.Sort == "distance")
	if !postFilter {
		total, err := s.count(ctx, "synagogues", w)
		if err != nil {
			return nil, 0, err
		}

		limit, offset := storage.Window(f.Page, f.Limit)
		query := "SELECT " + synagogueCols + " FROM synagogues" + w.clause() + venueOrder(f.Sort) +
			fmt.Sprintf(" LIMIT $%d OFFSET $%d", w.next(), w.next()+1)
		args := append(w.args, limit, offset)

		var rows []*models.Synagogue
		if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
			return nil, 0, fmt.Errorf("failed to list synagogues: %w", err)
		}
		if f.HasGeo() {
			for _, syn := range rows {
				if syn.Latitude != 0 || syn.Longitude != 0 {
					d := geo.Haversine(*f.Lat, *f.Lng, syn.Latitude, syn.Longitude)
					syn.DistanceKm = &d
				}
			}
		}
		return rows, total, nil
	}

	var rows []*models.Synagogue
	query := "SELECT " + synagogueCols + " FROM synagogues" + w.clause() + " ORDER BY created_at DESC, id"
	if err := s.db.SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list synagogues: %w", err)
	}

	kept := rows[:0]
	for _, syn := range rows {
		if syn.Latitude == 0 && syn.Longitude == 0 {
			if f.RadiusKm > 0 {
				continue
			}
			kept = append(kept, syn)
			continue
		}
		d := geo.Haversine(*f.Lat, *f.Lng, syn.Latitude, syn.Longitude)
		if f.RadiusKm > 0 && d > f.RadiusKm {
			continue
		}
		syn.DistanceKm = &d
		kept = append(kept, syn)
	}
	rows = kept

	if f.Sort == "distance" {
		geo.SortByDistance(rows, func(s *models.Synagogue) *float64 { return s.DistanceKm })
	}

	total := len(rows)
	return pageSlice(rows, f.Page, f.Limit), total, nil
}

// venueWhere builds the shared synagogue/mikvah filter; kindCol carries the
// entity-specific discriminator column.
func venueWhere(f *storage.VenueFilter, kindCol, kindVal string) *whereBuilder {
	w := &whereBuilder{}
	if f.Status != "" {
		w.add("status = $%d", f.Status)
	}
	if f.Query != "" {
		p := likePattern(f.Query)
		w.add("(lower(name) LIKE $%d OR lower(city) LIKE $%d)", p, p)
	}
	if f.City != "" {
		w.add("lower(city) = $%d", strings.ToLower(f.City))
	}
	if f.State != "" {
		w.add("lower(state) = $%d", strings.ToLower(f.State))
	}
	if kindVal != "" {
		w.add(kindCol+" = $%d", kindVal)
	}
	if f.HasGeo() && f.RadiusKm > 0 {
		box := geo.BoundingBox(*f.Lat, *f.Lng, f.RadiusKm)
		w.add("latitude BETWEEN $%d AND $%d", box.MinLat, box.MaxLat)
		w.add("longitude BETWEEN $%d AND $%d", box.MinLng, box.MaxLng)
	}
	return w
}

func venueOrder(sortKey string) string {
	switch sortKey {
	case "name":
		return " ORDER BY lower(name), id"
	default:
		return " ORDER BY created_at DESC, id"
	}
}
