package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

// searchLimit caps how many records each kind contributes to unified search.
const searchLimit = 5

type searchResult struct {
	Restaurants []*models.Restaurant `json:"restaurants"`
	Synagogues  []*models.Synagogue  `json:"synagogues"`
	Mikvahs     []*models.Mikvah     `json:"mikvahs"`
	Listings    []*models.Listing    `json:"listings"`
}

// Search handles GET /api/v5/search: one query across every kind, top
// matches per kind, queried concurrently.
func (a *API) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		RespondError(c, http.StatusBadRequest, "bad_request", "q is required")
		return
	}
	lat, lng, err := parseLatLng(c.Request.URL.Query())
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	var result searchResult
	g, ctx := errgroup.WithContext(c.Request.Context())

	g.Go(func() error {
		rows, _, err := a.store.ListRestaurants(ctx, storage.RestaurantFilter{
			Query:    query,
			Status:   models.StatusApproved,
			Lat:      lat,
			Lng:      lng,
			Location: a.defaultLoc,
			Limit:    searchLimit,
		})
		result.Restaurants = rows
		return err
	})
	g.Go(func() error {
		rows, _, err := a.store.ListSynagogues(ctx, storage.VenueFilter{
			Query:  query,
			Status: models.StatusApproved,
			Lat:    lat,
			Lng:    lng,
			Limit:  searchLimit,
		})
		result.Synagogues = rows
		return err
	})
	g.Go(func() error {
		rows, _, err := a.store.ListMikvahs(ctx, storage.VenueFilter{
			Query:  query,
			Status: models.StatusApproved,
			Lat:    lat,
			Lng:    lng,
			Limit:  searchLimit,
		})
		result.Mikvahs = rows
		return err
	})
	g.Go(func() error {
		rows, _, err := a.store.ListListings(ctx, storage.ListingFilter{
			Query:  query,
			Status: models.StatusApproved,
			Limit:  searchLimit,
		})
		result.Listings = rows
		return err
	})

	if err := g.Wait(); err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondData(c, http.StatusOK, result)
}
