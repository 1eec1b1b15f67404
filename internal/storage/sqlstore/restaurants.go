package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/levipshemish/jewgo-api/internal/geo"
	"github.com/levipshemish/jewgo-api/internal/hours"
	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

const restaurantCols = `id, name, description, address, city, state, zip, phone, website,
	kosher_category, agency, cholov_yisroel, pas_yisroel, price_range,
	latitude, longitude, timezone, hours, image_url, status,
	rating_avg, rating_count, created_at, updated_at`

// CreateRestaurant persists a new restaurant. ID, timestamps and status are
// filled in when unset; new records default to pending.
func (s *Store) CreateRestaurant(ctx context.Context, r *models.Restaurant) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if r.CreatedAt == 0 {
		r.CreatedAt = now
	}
	if r.UpdatedAt == 0 {
		r.UpdatedAt = now
	}
	if r.Status == "" {
		r.Status = models.StatusPending
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO restaurants
			(id, name, description, address, city, state, zip, phone, website,
			 kosher_category, agency, cholov_yisroel, pas_yisroel, price_range,
			 latitude, longitude, timezone, hours, image_url, status,
			 rating_avg, rating_count, created_at, updated_at)
		VALUES
			(:id, :name, :description, :address, :city, :state, :zip, :phone, :website,
			 :kosher_category, :agency, :cholov_yisroel, :pas_yisroel, :price_range,
			 :latitude, :longitude, :timezone, :hours, :image_url, :status,
			 :rating_avg, :rating_count, :created_at, :updated_at)
	`, r)
	if err != nil {
		return fmt.Errorf("failed to insert restaurant: %w", err)
	}
	return nil
}

// GetRestaurant retrieves a restaurant by ID.
func (s *Store) GetRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	r := &models.Restaurant{}
	err := s.db.GetContext(ctx, r,
		"SELECT "+restaurantCols+" FROM restaurants WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}
	return r, nil
}

// UpdateRestaurant updates every stored field of an existing restaurant.
func (s *Store) UpdateRestaurant(ctx context.Context, r *models.Restaurant) error {
	r.UpdatedAt = time.Now().Unix()

	res, err := s.db.NamedExecContext(ctx, `
		UPDATE restaurants SET
			name = :name,
			description = :description,
			address = :address,
			city = :city,
			state = :state,
			zip = :zip,
			phone = :phone,
			website = :website,
			kosher_category = :kosher_category,
			agency = :agency,
			cholov_yisroel = :cholov_yisroel,
			pas_yisroel = :pas_yisroel,
			price_range = :price_range,
			latitude = :latitude,
			longitude = :longitude,
			timezone = :timezone,
			hours = :hours,
			image_url = :image_url,
			status = :status,
			rating_avg = :rating_avg,
			rating_count = :rating_count,
			updated_at = :updated_at
		WHERE id = :id
	`, r)
	if err != nil {
		return fmt.Errorf("failed to update restaurant: %w", err)
	}
	return requireRow(res)
}

// DeleteRestaurant removes a restaurant and, via cascade, its reviews and
// images.
func (s *Store) DeleteRestaurant(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM restaurants WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete restaurant: %w", err)
	}
	return requireRow(res)
}

// ListRestaurants returns restaurants matching the filter plus the total
// match count. Plain filters run entirely in SQL; radius, distance sorting
// and open-now refinement happen in Go after a bounding-box prefilter.
func (s *Store) ListRestaurants(ctx context.Context, f storage.RestaurantFilter) ([]*models.Restaurant, int, error) {
	w := restaurantWhere(&f)

	// Radius, distance sort and open-now cannot be expressed in portable
	// SQL, so those filters fetch all candidates and refine here.
	postFilter := f.OpenNow || (f.HasGeo() && (f.RadiusKm > 0 || f.Sort == "distance"))

	if !postFilter {
		total, err := s.count(ctx, "restaurants", w)
		if err != nil {
			return nil, 0, err
		}

		query := "SELECT " + restaurantCols + " FROM restaurants" + w.clause() + restaurantOrder(f.Sort)
		args := w.args
		if !f.All {
			limit, offset := storage.Window(f.Page, f.Limit)
			query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", w.next(), w.next()+1)
			args = append(args, limit, offset)
		}

		var rows []*models.Restaurant
		if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
			return nil, 0, fmt.Errorf("failed to list restaurants: %w", err)
		}
		if f.HasGeo() {
			for _, r := range rows {
				if r.HasLocation() {
					d := geo.Haversine(*f.Lat, *f.Lng, r.Latitude, r.Longitude)
					r.DistanceKm = &d
				}
			}
		}
		return rows, total, nil
	}

	var rows []*models.Restaurant
	query := "SELECT " + restaurantCols + " FROM restaurants" + w.clause() + " ORDER BY created_at DESC, id"
	if err := s.db.SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list restaurants: %w", err)
	}

	if f.HasGeo() {
		kept := rows[:0]
		for _, r := range rows {
			if !r.HasLocation() {
				if f.RadiusKm > 0 {
					continue
				}
				kept = append(kept, r)
				continue
			}
			d := geo.Haversine(*f.Lat, *f.Lng, r.Latitude, r.Longitude)
			if f.RadiusKm > 0 && d > f.RadiusKm {
				continue
			}
			r.DistanceKm = &d
			kept = append(kept, r)
		}
		rows = kept
	}

	if f.OpenNow {
		kept := rows[:0]
		for _, r := range rows {
			if openAt(r.Hours, r.Timezone, &f) {
				kept = append(kept, r)
			}
		}
		rows = kept
	}

	sortRestaurants(rows, f.Sort)

	total := len(rows)
	if !f.All {
		rows = pageSlice(rows, f.Page, f.Limit)
	}
	return rows, total, nil
}

// GetRestaurantsByCity returns every restaurant in a city, any status.
// Used by duplicate detection.
func (s *Store) GetRestaurantsByCity(ctx context.Context, city, state string) ([]*models.Restaurant, error) {
	w := &whereBuilder{}
	if city != "" {
		w.add("lower(city) = $%d", strings.ToLower(city))
	}
	if state != "" {
		w.add("lower(state) = $%d", strings.ToLower(state))
	}

	var rows []*models.Restaurant
	query := "SELECT " + restaurantCols + " FROM restaurants" + w.clause() + " ORDER BY created_at DESC, id"
	if err := s.db.SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, fmt.Errorf("failed to get restaurants by city: %w", err)
	}
	return rows, nil
}

// UpdateRestaurantStatuses sets the status on every given ID in one
// transaction and reports how many rows changed.
func (s *Store) UpdateRestaurantStatuses(ctx context.Context, ids []string, status string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(
		"UPDATE restaurants SET status = $1, updated_at = $2 WHERE id IN (%s)",
		placeholders(3, len(ids)),
	)
	args := append([]interface{}{status, time.Now().Unix()}, idArgs(ids)...)
	return s.execBatch(ctx, query, args)
}

// UpdateRestaurantAgencies sets the certifying agency on every given ID in
// one transaction and reports how many rows changed.
func (s *Store) UpdateRestaurantAgencies(ctx context.Context, ids []string, agency string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(
		"UPDATE restaurants SET agency = $1, updated_at = $2 WHERE id IN (%s)",
		placeholders(3, len(ids)),
	)
	args := append([]interface{}{agency, time.Now().Unix()}, idArgs(ids)...)
	return s.execBatch(ctx, query, args)
}

// DeleteRestaurants removes every given ID in one transaction and reports
// how many rows were deleted.
func (s *Store) DeleteRestaurants(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(
		"DELETE FROM restaurants WHERE id IN (%s)",
		placeholders(1, len(ids)),
	)
	return s.execBatch(ctx, query, idArgs(ids))
}

// execBatch runs one statement in its own transaction and returns the
// affected row count.
func (s *Store) execBatch(ctx context.Context, query string, args []interface{}) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute batch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int(n), nil
}

func restaurantWhere(f *storage.RestaurantFilter) *whereBuilder {
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
	if f.Agency != "" {
		w.add("agency = $%d", f.Agency)
	}
	if f.KosherCategory != "" {
		w.add("kosher_category = $%d", f.KosherCategory)
	}
	if f.MinRating > 0 {
		w.add("rating_avg >= $%d", f.MinRating)
	}
	if f.CholovYisroel != nil {
		w.add("cholov_yisroel = $%d", *f.CholovYisroel)
	}
	if f.PasYisroel != nil {
		w.add("pas_yisroel = $%d", *f.PasYisroel)
	}
	if f.HasGeo() && f.RadiusKm > 0 {
		box := geo.BoundingBox(*f.Lat, *f.Lng, f.RadiusKm)
		w.add("latitude BETWEEN $%d AND $%d", box.MinLat, box.MaxLat)
		w.add("longitude BETWEEN $%d AND $%d", box.MinLng, box.MaxLng)
	}
	return w
}

func restaurantOrder(sortKey string) string {
	switch sortKey {
	case "rating":
		return " ORDER BY rating_avg DESC, rating_count DESC, id"
	case "name":
		return " ORDER BY lower(name), id"
	default:
		return " ORDER BY created_at DESC, id"
	}
}

func sortRestaurants(rows []*models.Restaurant, sortKey string) {
	switch sortKey {
	case "distance":
		geo.SortByDistance(rows, func(r *models.Restaurant) *float64 { return r.DistanceKm })
	case "rating":
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].RatingAvg != rows[j].RatingAvg {
				return rows[i].RatingAvg > rows[j].RatingAvg
			}
			return rows[i].RatingCount > rows[j].RatingCount
		})
	case "name":
		sort.SliceStable(rows, func(i, j int) bool {
			return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
		})
	default:
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].CreatedAt > rows[j].CreatedAt
		})
	}
}

// openAt reports whether a venue survives an open-now filter. Venues with
// missing or unparseable hours are kept: unknown is not closed.
func openAt(hoursText, timezone string, f *storage.RestaurantFilter) bool {
	if strings.TrimSpace(hoursText) == "" {
		return true
	}

	loc := f.Location
	if timezone != "" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}
	if loc == nil {
		loc = time.UTC
	}

	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}

	open, err := hours.OpenNow(hoursText, loc, now)
	if err != nil {
		return true
	}
	return open
}

// requireRow translates a zero-row update or delete into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
