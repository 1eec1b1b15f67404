package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/middleware"
	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

// API serves the public directory endpoints. Only approved records are
// visible here; moderation surfaces live in the admin package.
type API struct {
	store      storage.Store
	defaultLoc *time.Location
}

// NewAPI creates the public API over the given store. defaultLoc is the
// timezone used for open-now checks on venues without their own.
func NewAPI(store storage.Store, defaultLoc *time.Location) *API {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &API{store: store, defaultLoc: defaultLoc}
}

// ListRestaurants handles GET /api/v5/restaurants.
func (a *API) ListRestaurants(c *gin.Context) {
	f, err := ParseRestaurantFilter(c.Request.URL.Query())
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	f.Status = models.StatusApproved
	f.Location = a.defaultLoc

	rows, total, err := a.store.ListRestaurants(c.Request.Context(), *f)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondList(c, rows, total, f.Page, f.Limit)
}

// GetRestaurant handles GET /api/v5/restaurants/:id. Unapproved records are
// indistinguishable from missing ones.
func (a *API) GetRestaurant(c *gin.Context) {
	r, err := a.store.GetRestaurant(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	if r.Status != models.StatusApproved {
		RespondError(c, http.StatusNotFound, "not_found", "not found")
		return
	}
	RespondData(c, http.StatusOK, r)
}

// ListRestaurantReviews handles GET /api/v5/restaurants/:id/reviews.
func (a *API) ListRestaurantReviews(c *gin.Context) {
	f := storage.ReviewFilter{
		RestaurantID: c.Param("id"),
		Status:       models.StatusApproved,
	}
	var err error
	if f.Page, err = parseOptionalInt(c.Request.URL.Query(), "page"); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if f.Limit, err = parseOptionalInt(c.Request.URL.Query(), "limit"); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	rows, total, err := a.store.ListReviews(c.Request.Context(), f)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondList(c, rows, total, f.Page, f.Limit)
}

type createReviewRequest struct {
	Rating  int    `json:"rating"`
	Content string `json:"content"`
}

// CreateReview handles POST /api/v5/restaurants/:id/reviews. Any session may
// review, guests included; the review starts pending and does not touch the
// rating aggregate until approved.
func (a *API) CreateReview(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", "session required")
		return
	}

	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if !models.ValidRating(req.Rating) {
		RespondError(c, http.StatusBadRequest, "bad_request", "rating must be between 1 and 5")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" || len(req.Content) > 5000 {
		RespondError(c, http.StatusBadRequest, "bad_request", "content must be 1-5000 characters")
		return
	}

	restaurant, err := a.store.GetRestaurant(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	if restaurant.Status != models.StatusApproved {
		RespondError(c, http.StatusNotFound, "not_found", "not found")
		return
	}

	review := &models.Review{
		RestaurantID: restaurant.ID,
		UserID:       claims.UserID,
		AuthorName:   claims.Name,
		Rating:       req.Rating,
		Content:      req.Content,
		Status:       models.StatusPending,
	}
	if err := a.store.CreateReview(c.Request.Context(), review); err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondData(c, http.StatusCreated, review)
}
