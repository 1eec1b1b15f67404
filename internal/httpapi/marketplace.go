package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/middleware"
	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

var listingSorts = map[string]bool{
	"newest":     true,
	"price_asc":  true,
	"price_desc": true,
}

// ListListings handles GET /api/v5/marketplace.
func (a *API) ListListings(c *gin.Context) {
	values := c.Request.URL.Query()
	f := storage.ListingFilter{
		Query:    strings.TrimSpace(values.Get("q")),
		Category: strings.TrimSpace(values.Get("category")),
		City:     strings.TrimSpace(values.Get("city")),
		State:    strings.TrimSpace(values.Get("state")),
		Status:   models.StatusApproved,
	}

	var err error
	var n int
	if n, err = parseOptionalInt(values, "min_price_cents"); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	f.MinPriceCents = int64(n)
	if n, err = parseOptionalInt(values, "max_price_cents"); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	f.MaxPriceCents = int64(n)

	if v := values.Get("sort"); v != "" {
		if !listingSorts[v] {
			RespondError(c, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown sort %q", v))
			return
		}
		f.Sort = v
	}
	if f.Page, err = parseOptionalInt(values, "page"); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if f.Limit, err = parseOptionalInt(values, "limit"); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	rows, total, err := a.store.ListListings(c.Request.Context(), f)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondList(c, rows, total, f.Page, f.Limit)
}

// GetListing handles GET /api/v5/marketplace/:id. Sold listings stay
// visible; pending and rejected ones do not.
func (a *API) GetListing(c *gin.Context) {
	l, err := a.store.GetListing(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	if l.Status != models.StatusApproved && l.Status != models.StatusSold {
		RespondError(c, http.StatusNotFound, "not_found", "not found")
		return
	}
	RespondData(c, http.StatusOK, l)
}

type createListingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Category    string `json:"category"`
	City        string `json:"city"`
	State       string `json:"state"`
}

// CreateListing handles POST /api/v5/marketplace. The route requires a
// non-guest session; the listing starts pending.
func (a *API) CreateListing(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok || claims.Guest {
		RespondError(c, http.StatusForbidden, "forbidden", "a registered account is required to sell")
		return
	}

	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || len(req.Title) > 200 {
		RespondError(c, http.StatusBadRequest, "bad_request", "title must be 1-200 characters")
		return
	}
	if req.PriceCents < 0 {
		RespondError(c, http.StatusBadRequest, "bad_request", "price_cents must not be negative")
		return
	}
	if req.Category = strings.TrimSpace(req.Category); req.Category == "" {
		RespondError(c, http.StatusBadRequest, "bad_request", "category is required")
		return
	}

	listing := &models.Listing{
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		PriceCents:  req.PriceCents,
		Category:    req.Category,
		SellerID:    claims.UserID,
		City:        strings.TrimSpace(req.City),
		State:       strings.TrimSpace(req.State),
		Status:      models.StatusPending,
	}
	if err := a.store.CreateListing(c.Request.Context(), listing); err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondData(c, http.StatusCreated, listing)
}
