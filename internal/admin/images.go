package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/httpapi"
	"github.com/levipshemish/jewgo-api/internal/models"
)

// ListImages handles GET /api/admin/restaurants/:id/images, ordered the way
// the public gallery renders them.
func (s *Service) ListImages(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := s.store.GetRestaurant(ctx, c.Param("id")); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	rows, err := s.store.ListImages(ctx, c.Param("id"))
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	if rows == nil {
		rows = []*models.RestaurantImage{}
	}
	httpapi.RespondData(c, http.StatusOK, rows)
}

type imageRequest struct {
	URL      string `json:"url"`
	AltText  string `json:"alt_text"`
	Position int    `json:"position"`
}

// CreateImage handles POST /api/admin/restaurants/:id/images. Without an
// explicit position the image lands at the end of the gallery.
func (s *Service) CreateImage(c *gin.Context) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "url is required")
		return
	}

	ctx := c.Request.Context()
	restaurantID := c.Param("id")
	if _, err := s.store.GetRestaurant(ctx, restaurantID); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}

	img := &models.RestaurantImage{
		RestaurantID: restaurantID,
		URL:          req.URL,
		AltText:      req.AltText,
		Position:     req.Position,
	}
	if err := s.store.CreateImage(ctx, img); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	s.audit(c, models.AuditCreate, "image", img.ID, auditDetail(gin.H{"restaurant_id": restaurantID}))
	httpapi.RespondData(c, http.StatusCreated, img)
}

// UpdateImage handles PATCH /api/admin/images/:id.
func (s *Service) UpdateImage(c *gin.Context) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "url is required")
		return
	}

	ctx := c.Request.Context()
	img, err := s.store.GetImage(ctx, c.Param("id"))
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	img.URL = req.URL
	img.AltText = req.AltText
	img.Position = req.Position
	if err := s.store.UpdateImage(ctx, img); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	s.audit(c, models.AuditUpdate, "image", img.ID, auditDetail(gin.H{"restaurant_id": img.RestaurantID}))
	httpapi.RespondData(c, http.StatusOK, img)
}

// DeleteImage handles DELETE /api/admin/images/:id.
func (s *Service) DeleteImage(c *gin.Context) {
	ctx := c.Request.Context()
	img, err := s.store.GetImage(ctx, c.Param("id"))
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	if err := s.store.DeleteImage(ctx, img.ID); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	s.audit(c, models.AuditDelete, "image", img.ID, auditDetail(gin.H{"restaurant_id": img.RestaurantID}))
	httpapi.RespondData(c, http.StatusOK, gin.H{"deleted": true})
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

// ReorderImages handles PUT /api/admin/restaurants/:id/images/order. The
// body lists every image ID in its new order; an ID from another restaurant
// rolls the whole reorder back.
func (s *Service) ReorderImages(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "ids is required")
		return
	}

	ctx := c.Request.Context()
	restaurantID := c.Param("id")
	if err := s.store.ReorderImages(ctx, restaurantID, req.IDs); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	rows, err := s.store.ListImages(ctx, restaurantID)
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	s.audit(c, models.AuditUpdate, "image", restaurantID, auditDetail(gin.H{"reordered": len(req.IDs)}))
	httpapi.RespondData(c, http.StatusOK, rows)
}
