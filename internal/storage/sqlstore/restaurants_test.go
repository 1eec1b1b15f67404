package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

// newTestStore opens a throwaway SQLite store. Using a file instead of
// :memory: keeps every pooled connection on the same database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedRestaurant(t *testing.T, store *Store, r *models.Restaurant) *models.Restaurant {
	t.Helper()
	if r.KosherCategory == "" {
		r.KosherCategory = models.KosherDairy
	}
	if r.Status == "" {
		r.Status = models.StatusApproved
	}
	if err := store.CreateRestaurant(context.Background(), r); err != nil {
		t.Fatalf("CreateRestaurant failed: %v", err)
	}
	return r
}

func TestRestaurantCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("Create generates ID, timestamps and pending status", func(t *testing.T) {
		r := &models.Restaurant{Name: "Pita Xpress", KosherCategory: models.KosherMeat}
		if err := store.CreateRestaurant(ctx, r); err != nil {
			t.Fatalf("CreateRestaurant failed: %v", err)
		}
		if r.ID == "" {
			t.Error("Expected ID to be generated")
		}
		if r.CreatedAt == 0 || r.UpdatedAt == 0 {
			t.Error("Expected timestamps to be set")
		}
		if r.Status != models.StatusPending {
			t.Errorf("Status = %q, want pending", r.Status)
		}
	})

	t.Run("Get round-trips every field", func(t *testing.T) {
		original := seedRestaurant(t, store, &models.Restaurant{
			Name:           "Jerusalem Grill",
			Description:    "Israeli meat grill",
			Address:        "123 Main St",
			City:           "Miami",
			State:          "FL",
			Zip:            "33101",
			Phone:          "(305) 555-0142",
			Website:        "https://example.com",
			KosherCategory: models.KosherMeat,
			Agency:         "ORB",
			PasYisroel:     true,
			PriceRange:     "$$",
			Latitude:       25.7617,
			Longitude:      -80.1918,
			Timezone:       "America/New_York",
			Hours:          "Mon-Thu 11:00-22:00",
			ImageURL:       "https://example.com/a.jpg",
		})

		got, err := store.GetRestaurant(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetRestaurant failed: %v", err)
		}
		if got.Name != original.Name {
			t.Errorf("Name = %q, want %q", got.Name, original.Name)
		}
		if got.Agency != "ORB" || got.KosherCategory != models.KosherMeat {
			t.Errorf("certification mismatch: %q/%q", got.Agency, got.KosherCategory)
		}
		if !got.PasYisroel || got.CholovYisroel {
			t.Errorf("flags mismatch: pas=%v cholov=%v", got.PasYisroel, got.CholovYisroel)
		}
		if got.Latitude != original.Latitude || got.Longitude != original.Longitude {
			t.Errorf("coordinates mismatch: %v,%v", got.Latitude, got.Longitude)
		}
		if got.Hours != original.Hours || got.Timezone != original.Timezone {
			t.Errorf("hours mismatch: %q %q", got.Hours, got.Timezone)
		}
	})

	t.Run("Get returns ErrNotFound for missing ID", func(t *testing.T) {
		_, err := store.GetRestaurant(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("Update persists changes", func(t *testing.T) {
		r := seedRestaurant(t, store, &models.Restaurant{Name: "Old Name"})
		r.Name = "New Name"
		r.Agency = "OU"
		if err := store.UpdateRestaurant(ctx, r); err != nil {
			t.Fatalf("UpdateRestaurant failed: %v", err)
		}

		got, err := store.GetRestaurant(ctx, r.ID)
		if err != nil {
			t.Fatalf("GetRestaurant failed: %v", err)
		}
		if got.Name != "New Name" || got.Agency != "OU" {
			t.Errorf("update not persisted: %q %q", got.Name, got.Agency)
		}
	})

	t.Run("Update of missing row returns ErrNotFound", func(t *testing.T) {
		err := store.UpdateRestaurant(ctx, &models.Restaurant{ID: "missing", Name: "x"})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("Delete removes the row and cascades", func(t *testing.T) {
		r := seedRestaurant(t, store, &models.Restaurant{Name: "Doomed"})
		rv := &models.Review{RestaurantID: r.ID, Rating: 5, AuthorName: "a"}
		if err := store.CreateReview(ctx, rv); err != nil {
			t.Fatalf("CreateReview failed: %v", err)
		}

		if err := store.DeleteRestaurant(ctx, r.ID); err != nil {
			t.Fatalf("DeleteRestaurant failed: %v", err)
		}
		if _, err := store.GetRestaurant(ctx, r.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("restaurant still present after delete: %v", err)
		}
		if _, err := store.GetReview(ctx, rv.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("review survived restaurant delete: %v", err)
		}
	})
}

func TestListRestaurantsFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()

	seedRestaurant(t, store, &models.Restaurant{
		Name: "Jerusalem Grill", City: "Miami", State: "FL",
		KosherCategory: models.KosherMeat, Agency: "ORB",
		RatingAvg: 4.5, RatingCount: 10, CreatedAt: base + 3, UpdatedAt: base + 3,
	})
	seedRestaurant(t, store, &models.Restaurant{
		Name: "Milk N Honey", City: "Miami", State: "FL",
		KosherCategory: models.KosherDairy, Agency: "OU", CholovYisroel: true,
		RatingAvg: 3.2, RatingCount: 4, CreatedAt: base + 2, UpdatedAt: base + 2,
	})
	seedRestaurant(t, store, &models.Restaurant{
		Name: "Bagel Boys", City: "Boca Raton", State: "FL",
		KosherCategory: models.KosherDairy, Agency: "ORB",
		RatingAvg: 4.9, RatingCount: 22, CreatedAt: base + 1, UpdatedAt: base + 1,
	})
	seedRestaurant(t, store, &models.Restaurant{
		Name: "Pending Pizza", City: "Miami", State: "FL",
		KosherCategory: models.KosherDairy, Status: models.StatusPending,
		CreatedAt: base, UpdatedAt: base,
	})

	t.Run("status filter hides pending", func(t *testing.T) {
		rows, total, err := store.ListRestaurants(ctx, storage.RestaurantFilter{Status: models.StatusApproved})
		if err != nil {
			t.Fatalf("ListRestaurants failed: %v", err)
		}
		if total != 3 || len(rows) != 3 {
			t.Errorf("got %d/%d results, want 3/3", len(rows), total)
		}
	})

	t.Run("query matches name case-insensitively", func(t *testing.T) {
		rows, total, err := store.ListRestaurants(ctx, storage.RestaurantFilter{Query: "jerusalem"})
		if err != nil {
			t.Fatalf("ListRestaurants failed: %v", err)
		}
		if total != 1 || len(rows) != 1 || rows[0].Name != "Jerusalem Grill" {
			t.Errorf("unexpected results: total=%d rows=%v", total, rows)
		}
	})

	t.Run("query matches city", func(t *testing.T) {
		_, total, err := store.ListRestaurants(ctx, storage.RestaurantFilter{Query: "boca", Status: models.StatusApproved})
		if err != nil {
			t.Fatalf("ListRestaurants failed: %v", err)
		}
		if total != 1 {
			t.Errorf("total = %d, want 1", total)
		}
	})

	t.Run("filters compose as AND", func(t *testing.T) {
		rows, total, err := store.ListRestaurants(ctx, storage.RestaurantFilter{
			Status:         models.StatusApproved,
			City:           "Miami",
			KosherCategory: models.KosherDairy,
		})
		if err != nil {
			t.Fatalf("ListRestaurants failed: %v", err)
		}
		if total != 1 || rows[0].Name != "Milk N Honey" {
			t.Errorf("unexpected results: total=%d", total)
		}
	})

	t.Run("cholov yisroel flag filter", func(t *testing.T) {
		yes := true
		_, total, err := store.ListRestaurants(ctx, storage.RestaurantFilter{CholovYisroel: &yes})
		if err != nil {
			t.Fatalf("ListRestaurants failed: %v", err)
		}
		if total != 1 {
			t.Errorf("total = %d, want 1", total)
		}
	})

	t.Run("min rating filter", func(t *testing.T) {
		_, total, err := store.ListRestaurants(ctx, storage.RestaurantFilter{
			Status:    models.StatusApproved,
			MinRating: 4.0,
		})
		if err != nil {
			t.Fatalf("ListRestaurants failed: %v", err)
		}
		if total != 2 {
			t.Errorf("total = %d, want 2", total)
		}
	})

	t.Run("rating sort puts best first", func(t *testing.T) {
		rows, _, err := store.ListRestaurants(ctx, storage.RestaurantFilter{
			Status: models.StatusApproved,
			Sort:   "rating",
		})
		if err != nil {
			t.Fatalf("ListRestaurants failed: %v", err)
		}
		if rows[0].Name != "Bagel Boys" {
			t.Errorf("first = %q, want Bagel Boys", rows[0].Name)
		}
	})

	t.Run("default sort is newest first", func(t *testing.T) {
		rows, _, err := store.ListRestaurants(ctx, storage.RestaurantFilter{Status: models.StatusApproved})
		if err != nil {
			t.Fatalf("ListRestaurants failed: %v", err)
		}
		if rows[0].Name != "Jerusalem Grill" {
			t.Errorf("first = %q, want Jerusalem Grill", rows[0].Name)
		}
	})

	t.Run("pagination slices but total covers all matches", func(t *testing.T) {
		rows, total, err := store.ListRestaurants(ctx, storage.RestaurantFilter{
			Status: models.StatusApproved,
			Page:   2,
			Limit:  2,
		})
		if err != nil {
			t.Fatalf("ListRestaurants failed: %v", err)
		}
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		if len(rows) != 1 {
			t.Errorf("page 2 has %d rows, want 1", len(rows))
		}
	})
}

func TestListRestaurantsGeo(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Miami Beach area plus one far-away control.
	seedRestaurant(t, store, &models.Restaurant{
		Name: "Close Cafe", City: "Miami", Latitude: 25.7650, Longitude: -80.1900,
	})
	seedRestaurant(t, store, &models.Restaurant{
		Name: "Surfside Deli", City: "Surfside", Latitude: 25.8787, Longitude: -80.1257,
	})
	seedRestaurant(t, store, &models.Restaurant{
		Name: "Boca Bistro", City: "Boca Raton", Latitude: 26.3683, Longitude: -80.1289,
	})

	lat, lng := 25.7617, -80.1918

	t.Run("radius keeps only nearby venues", func(t *testing.T) {
		rows, total, err := store.ListRestaurants(ctx, storage.RestaurantFilter{
			Lat: &lat, Lng: &lng, RadiusKm: 20,
		})
		if err != nil {
			t.Fatalf("ListRestaurants failed: %v", err)
		}
		if total != 2 {
			t.Fatalf("total = %d, want 2 (Boca is ~68km away)", total)
		}
		for _, r := range rows {
			if r.DistanceKm == nil {
				t.Errorf("%s missing distance_km", r.Name)
			} else if *r.DistanceKm > 20 {
				t.Errorf("%s at %.1fkm escaped the radius", r.Name, *r.DistanceKm)
			}
		}
	})

	t.Run("distance sort orders closest first", func(t *testing.T) {
		rows, _, err := store.ListRestaurants(ctx, storage.RestaurantFilter{
			Lat: &lat, Lng: &lng, Sort: "distance",
		})
		if err != nil {
			t.Fatalf("ListRestaurants failed: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("got %d rows, want 3", len(rows))
		}
		if rows[0].Name != "Close Cafe" || rows[2].Name != "Boca Bistro" {
			t.Errorf("order = %s..%s, want Close Cafe..Boca Bistro", rows[0].Name, rows[2].Name)
		}
	})
}

func TestListRestaurantsOpenNow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedRestaurant(t, store, &models.Restaurant{
		Name: "Lunch Spot", Hours: "Mon 09:00-17:00", Timezone: "UTC",
	})
	seedRestaurant(t, store, &models.Restaurant{
		Name: "Dinner Spot", Hours: "Mon 18:00-23:00", Timezone: "UTC",
	})
	seedRestaurant(t, store, &models.Restaurant{
		Name: "No Hours Listed",
	})
	seedRestaurant(t, store, &models.Restaurant{
		Name: "Bad Hours", Hours: "whenever we feel like it",
	})

	// Monday 10:00 UTC.
	now := time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)

	rows, total, err := store.ListRestaurants(ctx, storage.RestaurantFilter{
		OpenNow:  true,
		Now:      now,
		Location: time.UTC,
	})
	if err != nil {
		t.Fatalf("ListRestaurants failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3 (unknown hours are not closed)", total)
	}
	for _, r := range rows {
		if r.Name == "Dinner Spot" {
			t.Error("Dinner Spot is closed at 10:00 and should be filtered")
		}
	}
}

func TestRestaurantBatchOps(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := seedRestaurant(t, store, &models.Restaurant{Name: "A", Status: models.StatusPending})
	b := seedRestaurant(t, store, &models.Restaurant{Name: "B", Status: models.StatusPending})
	c := seedRestaurant(t, store, &models.Restaurant{Name: "C", Status: models.StatusPending})

	t.Run("UpdateRestaurantStatuses reports affected count", func(t *testing.T) {
		n, err := store.UpdateRestaurantStatuses(ctx, []string{a.ID, b.ID, "missing"}, models.StatusApproved)
		if err != nil {
			t.Fatalf("UpdateRestaurantStatuses failed: %v", err)
		}
		if n != 2 {
			t.Errorf("affected = %d, want 2", n)
		}

		got, err := store.GetRestaurant(ctx, a.ID)
		if err != nil {
			t.Fatalf("GetRestaurant failed: %v", err)
		}
		if got.Status != models.StatusApproved {
			t.Errorf("status = %q, want approved", got.Status)
		}
	})

	t.Run("UpdateRestaurantAgencies", func(t *testing.T) {
		n, err := store.UpdateRestaurantAgencies(ctx, []string{a.ID, c.ID}, "OU")
		if err != nil {
			t.Fatalf("UpdateRestaurantAgencies failed: %v", err)
		}
		if n != 2 {
			t.Errorf("affected = %d, want 2", n)
		}
	})

	t.Run("empty ID list is a no-op", func(t *testing.T) {
		n, err := store.UpdateRestaurantStatuses(ctx, nil, models.StatusApproved)
		if err != nil {
			t.Fatalf("UpdateRestaurantStatuses failed: %v", err)
		}
		if n != 0 {
			t.Errorf("affected = %d, want 0", n)
		}
	})

	t.Run("DeleteRestaurants skips missing IDs", func(t *testing.T) {
		n, err := store.DeleteRestaurants(ctx, []string{c.ID, "missing"})
		if err != nil {
			t.Fatalf("DeleteRestaurants failed: %v", err)
		}
		if n != 1 {
			t.Errorf("deleted = %d, want 1", n)
		}
		if _, err := store.GetRestaurant(ctx, c.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("restaurant C still present: %v", err)
		}
	})
}

func TestGetRestaurantsByCity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedRestaurant(t, store, &models.Restaurant{Name: "A", City: "Miami", State: "FL"})
	seedRestaurant(t, store, &models.Restaurant{Name: "B", City: "miami", State: "FL", Status: models.StatusPending})
	seedRestaurant(t, store, &models.Restaurant{Name: "C", City: "Boca Raton", State: "FL"})

	rows, err := store.GetRestaurantsByCity(ctx, "Miami", "FL")
	if err != nil {
		t.Fatalf("GetRestaurantsByCity failed: %v", err)
	}
	// Any status counts: duplicate detection must see pending rows too.
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}
}
