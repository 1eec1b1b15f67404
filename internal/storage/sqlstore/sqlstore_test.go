package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

func TestUserStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("create and fetch by email", func(t *testing.T) {
		u := models.NewUser("alice@example.com", "Alice", "hash")
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		got, err := store.GetUserByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got.ID != u.ID || got.PasswordHash != "hash" || got.Role != models.RoleUser {
			t.Errorf("round-trip mismatch: %+v", got)
		}
	})

	t.Run("duplicate email returns typed error", func(t *testing.T) {
		if err := store.CreateUser(ctx, models.NewUser("bob@example.com", "Bob", "h")); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		err := store.CreateUser(ctx, models.NewUser("bob@example.com", "Bobby", "h2"))
		if !errors.Is(err, storage.ErrDuplicateEmail) {
			t.Errorf("err = %v, want ErrDuplicateEmail", err)
		}
	})

	t.Run("guests have no email and never collide", func(t *testing.T) {
		g1, g2 := models.NewGuestUser(), models.NewGuestUser()
		if err := store.CreateUser(ctx, g1); err != nil {
			t.Fatalf("first guest failed: %v", err)
		}
		if err := store.CreateUser(ctx, g2); err != nil {
			t.Fatalf("second guest failed: %v", err)
		}

		got, err := store.GetUserByID(ctx, g2.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if !got.IsGuest {
			t.Error("guest flag lost in round-trip")
		}
	})

	t.Run("missing email is ErrNotFound", func(t *testing.T) {
		_, err := store.GetUserByEmail(ctx, "nobody@example.com")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("role update", func(t *testing.T) {
		u := models.NewUser("mod@example.com", "Mod", "h")
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		if err := store.UpdateUserRole(ctx, u.ID, models.RoleModerator); err != nil {
			t.Fatalf("UpdateUserRole failed: %v", err)
		}

		got, err := store.GetUserByID(ctx, u.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if got.Role != models.RoleModerator {
			t.Errorf("role = %q, want moderator", got.Role)
		}
	})

	t.Run("list with query", func(t *testing.T) {
		_, total, err := store.ListUsers(ctx, storage.UserFilter{Query: "alice"})
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if total != 1 {
			t.Errorf("total = %d, want 1", total)
		}
	})

	t.Run("delete", func(t *testing.T) {
		u := models.NewUser("gone@example.com", "Gone", "h")
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		if err := store.DeleteUser(ctx, u.ID); err != nil {
			t.Fatalf("DeleteUser failed: %v", err)
		}
		if _, err := store.GetUserByID(ctx, u.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("user still present: %v", err)
		}
	})
}

func TestReviewsAndRatingRecalc(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := seedRestaurant(t, store, &models.Restaurant{Name: "Rated Place"})

	add := func(rating int, status string) *models.Review {
		t.Helper()
		rv := &models.Review{
			RestaurantID: r.ID,
			UserID:       "u1",
			AuthorName:   "A",
			Rating:       rating,
			Content:      "ok",
			Status:       status,
		}
		if err := store.CreateReview(ctx, rv); err != nil {
			t.Fatalf("CreateReview failed: %v", err)
		}
		return rv
	}

	add(5, models.StatusApproved)
	add(4, models.StatusApproved)
	pending := add(1, models.StatusPending)

	t.Run("recalc averages only approved reviews", func(t *testing.T) {
		if err := store.RecalcRestaurantRating(ctx, r.ID); err != nil {
			t.Fatalf("RecalcRestaurantRating failed: %v", err)
		}

		got, err := store.GetRestaurant(ctx, r.ID)
		if err != nil {
			t.Fatalf("GetRestaurant failed: %v", err)
		}
		if got.RatingAvg != 4.5 || got.RatingCount != 2 {
			t.Errorf("aggregate = %.2f/%d, want 4.50/2", got.RatingAvg, got.RatingCount)
		}
	})

	t.Run("approving the pending review moves the aggregate", func(t *testing.T) {
		pending.Status = models.StatusApproved
		if err := store.UpdateReview(ctx, pending); err != nil {
			t.Fatalf("UpdateReview failed: %v", err)
		}
		if err := store.RecalcRestaurantRating(ctx, r.ID); err != nil {
			t.Fatalf("RecalcRestaurantRating failed: %v", err)
		}

		got, _ := store.GetRestaurant(ctx, r.ID)
		if got.RatingCount != 3 {
			t.Errorf("count = %d, want 3", got.RatingCount)
		}
		want := (5.0 + 4.0 + 1.0) / 3.0
		if got.RatingAvg < want-0.01 || got.RatingAvg > want+0.01 {
			t.Errorf("avg = %.3f, want %.3f", got.RatingAvg, want)
		}
	})

	t.Run("list by status", func(t *testing.T) {
		rows, total, err := store.ListReviews(ctx, storage.ReviewFilter{
			RestaurantID: r.ID,
			Status:       models.StatusApproved,
		})
		if err != nil {
			t.Fatalf("ListReviews failed: %v", err)
		}
		if total != 3 || len(rows) != 3 {
			t.Errorf("got %d/%d, want 3/3", len(rows), total)
		}
	})

	t.Run("recalc with zero approved reviews resets to zero", func(t *testing.T) {
		empty := seedRestaurant(t, store, &models.Restaurant{Name: "No Reviews", RatingAvg: 4, RatingCount: 9})
		if err := store.RecalcRestaurantRating(ctx, empty.ID); err != nil {
			t.Fatalf("RecalcRestaurantRating failed: %v", err)
		}
		got, _ := store.GetRestaurant(ctx, empty.ID)
		if got.RatingAvg != 0 || got.RatingCount != 0 {
			t.Errorf("aggregate = %.2f/%d, want 0/0", got.RatingAvg, got.RatingCount)
		}
	})

	t.Run("recalc for missing restaurant is ErrNotFound", func(t *testing.T) {
		err := store.RecalcRestaurantRating(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestImageGallery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := seedRestaurant(t, store, &models.Restaurant{Name: "Gallery Place"})

	add := func(url string) *models.RestaurantImage {
		t.Helper()
		img := &models.RestaurantImage{RestaurantID: r.ID, URL: url}
		if err := store.CreateImage(ctx, img); err != nil {
			t.Fatalf("CreateImage failed: %v", err)
		}
		return img
	}

	a := add("https://img/a.jpg")
	b := add("https://img/b.jpg")
	c := add("https://img/c.jpg")

	t.Run("create appends to the end of the gallery", func(t *testing.T) {
		rows, err := store.ListImages(ctx, r.ID)
		if err != nil {
			t.Fatalf("ListImages failed: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("got %d images, want 3", len(rows))
		}
		if rows[0].ID != a.ID || rows[1].ID != b.ID || rows[2].ID != c.ID {
			t.Errorf("unexpected order: %s %s %s", rows[0].URL, rows[1].URL, rows[2].URL)
		}
	})

	t.Run("reorder rewrites positions", func(t *testing.T) {
		if err := store.ReorderImages(ctx, r.ID, []string{c.ID, a.ID, b.ID}); err != nil {
			t.Fatalf("ReorderImages failed: %v", err)
		}

		rows, err := store.ListImages(ctx, r.ID)
		if err != nil {
			t.Fatalf("ListImages failed: %v", err)
		}
		if rows[0].ID != c.ID || rows[1].ID != a.ID || rows[2].ID != b.ID {
			t.Errorf("unexpected order after reorder: %s %s %s", rows[0].URL, rows[1].URL, rows[2].URL)
		}
	})

	t.Run("reorder with foreign ID rolls back", func(t *testing.T) {
		err := store.ReorderImages(ctx, r.ID, []string{"foreign-id", a.ID})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}

		rows, _ := store.ListImages(ctx, r.ID)
		if rows[0].ID != c.ID {
			t.Error("failed reorder should not change positions")
		}
	})

	t.Run("update and delete", func(t *testing.T) {
		a.AltText = "storefront"
		if err := store.UpdateImage(ctx, a); err != nil {
			t.Fatalf("UpdateImage failed: %v", err)
		}
		got, err := store.GetImage(ctx, a.ID)
		if err != nil {
			t.Fatalf("GetImage failed: %v", err)
		}
		if got.AltText != "storefront" {
			t.Errorf("alt = %q, want storefront", got.AltText)
		}

		if err := store.DeleteImage(ctx, b.ID); err != nil {
			t.Fatalf("DeleteImage failed: %v", err)
		}
		if _, err := store.GetImage(ctx, b.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("image still present: %v", err)
		}
	})
}

func TestListingStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mk := func(title string, cents int64, category, status string) *models.Listing {
		t.Helper()
		l := &models.Listing{
			Title:      title,
			PriceCents: cents,
			Category:   category,
			SellerID:   "seller-1",
			City:       "Miami",
			State:      "FL",
			Status:     status,
		}
		if err := store.CreateListing(ctx, l); err != nil {
			t.Fatalf("CreateListing failed: %v", err)
		}
		return l
	}

	mk("Menorah", 4500, "judaica", models.StatusApproved)
	mk("Sukkah kit", 22000, "holiday", models.StatusApproved)
	sold := mk("Old table", 1000, "furniture", models.StatusSold)

	t.Run("filters and price sort", func(t *testing.T) {
		rows, total, err := store.ListListings(ctx, storage.ListingFilter{
			Status: models.StatusApproved,
			Sort:   "price_asc",
		})
		if err != nil {
			t.Fatalf("ListListings failed: %v", err)
		}
		if total != 2 {
			t.Fatalf("total = %d, want 2", total)
		}
		if rows[0].Title != "Menorah" {
			t.Errorf("first = %q, want Menorah", rows[0].Title)
		}
	})

	t.Run("price range", func(t *testing.T) {
		_, total, err := store.ListListings(ctx, storage.ListingFilter{
			MinPriceCents: 2000,
			MaxPriceCents: 10000,
		})
		if err != nil {
			t.Fatalf("ListListings failed: %v", err)
		}
		if total != 1 {
			t.Errorf("total = %d, want 1", total)
		}
	})

	t.Run("update status round-trips", func(t *testing.T) {
		sold.Status = models.StatusApproved
		if err := store.UpdateListing(ctx, sold); err != nil {
			t.Fatalf("UpdateListing failed: %v", err)
		}
		got, err := store.GetListing(ctx, sold.ID)
		if err != nil {
			t.Fatalf("GetListing failed: %v", err)
		}
		if got.Status != models.StatusApproved {
			t.Errorf("status = %q, want approved", got.Status)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := store.DeleteListing(ctx, sold.ID); err != nil {
			t.Fatalf("DeleteListing failed: %v", err)
		}
		if _, err := store.GetListing(ctx, sold.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("listing still present: %v", err)
		}
	})
}

func TestSynagogueAndMikvahStores(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	syn := &models.Synagogue{
		Name:         "Beth Shalom",
		Denomination: models.DenomOrthodox,
		City:         "Miami",
		State:        "FL",
		Status:       models.StatusApproved,
	}
	if err := store.CreateSynagogue(ctx, syn); err != nil {
		t.Fatalf("CreateSynagogue failed: %v", err)
	}

	m := &models.Mikvah{
		Name:                "Mei Menachem",
		Kind:                models.MikvahWomen,
		City:                "Miami",
		State:               "FL",
		AppointmentRequired: true,
		Status:              models.StatusApproved,
	}
	if err := store.CreateMikvah(ctx, m); err != nil {
		t.Fatalf("CreateMikvah failed: %v", err)
	}

	t.Run("denomination filter", func(t *testing.T) {
		_, total, err := store.ListSynagogues(ctx, storage.VenueFilter{Denomination: models.DenomOrthodox})
		if err != nil {
			t.Fatalf("ListSynagogues failed: %v", err)
		}
		if total != 1 {
			t.Errorf("total = %d, want 1", total)
		}
		_, total, err = store.ListSynagogues(ctx, storage.VenueFilter{Denomination: models.DenomReform})
		if err != nil {
			t.Fatalf("ListSynagogues failed: %v", err)
		}
		if total != 0 {
			t.Errorf("total = %d, want 0", total)
		}
	})

	t.Run("mikvah round-trip keeps appointment flag", func(t *testing.T) {
		got, err := store.GetMikvah(ctx, m.ID)
		if err != nil {
			t.Fatalf("GetMikvah failed: %v", err)
		}
		if !got.AppointmentRequired {
			t.Error("appointment flag lost")
		}
	})

	t.Run("update and delete synagogue", func(t *testing.T) {
		syn.Website = "https://example.org"
		if err := store.UpdateSynagogue(ctx, syn); err != nil {
			t.Fatalf("UpdateSynagogue failed: %v", err)
		}
		if err := store.DeleteSynagogue(ctx, syn.ID); err != nil {
			t.Fatalf("DeleteSynagogue failed: %v", err)
		}
		if _, err := store.GetSynagogue(ctx, syn.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("synagogue still present: %v", err)
		}
	})
}

func TestAuditAndStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedRestaurant(t, store, &models.Restaurant{Name: "A"})
	seedRestaurant(t, store, &models.Restaurant{Name: "B", Status: models.StatusPending})
	if err := store.CreateUser(ctx, models.NewUser("admin@example.com", "Admin", "h")); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	t.Run("append and list audit entries", func(t *testing.T) {
		entries := []*models.AuditEntry{
			models.NewAuditEntry("adm1", "admin@example.com", models.AuditApprove, "restaurant", "r1", ""),
			models.NewAuditEntry("adm1", "admin@example.com", models.AuditDelete, "review", "rv1", ""),
			models.NewAuditEntry("adm2", "other@example.com", models.AuditApprove, "restaurant", "r2", ""),
		}
		for _, e := range entries {
			if err := store.AppendAudit(ctx, e); err != nil {
				t.Fatalf("AppendAudit failed: %v", err)
			}
		}

		_, total, err := store.ListAudit(ctx, storage.AuditFilter{Action: models.AuditApprove})
		if err != nil {
			t.Fatalf("ListAudit failed: %v", err)
		}
		if total != 2 {
			t.Errorf("approve entries = %d, want 2", total)
		}

		_, total, err = store.ListAudit(ctx, storage.AuditFilter{AdminID: "adm1"})
		if err != nil {
			t.Fatalf("ListAudit failed: %v", err)
		}
		if total != 2 {
			t.Errorf("adm1 entries = %d, want 2", total)
		}
	})

	t.Run("stats counts by status", func(t *testing.T) {
		stats, err := store.CountByStatus(ctx)
		if err != nil {
			t.Fatalf("CountByStatus failed: %v", err)
		}
		if stats.Restaurants[models.StatusApproved] != 1 {
			t.Errorf("approved restaurants = %d, want 1", stats.Restaurants[models.StatusApproved])
		}
		if stats.Restaurants[models.StatusPending] != 1 {
			t.Errorf("pending restaurants = %d, want 1", stats.Restaurants[models.StatusPending])
		}
		if stats.Users != 1 {
			t.Errorf("users = %d, want 1", stats.Users)
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := store.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})
}
