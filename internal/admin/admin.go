// Package admin implements the back-office surface under /api/admin:
// moderation queues, record CRUD, bulk operations, CSV export, the audit
// trail and dashboard stats. Role and CSRF enforcement live in the route
// table; handlers here only re-check the rules that depend on the target
// record (self role changes, super_admin deletion).
package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/dedupe"
	"github.com/levipshemish/jewgo-api/internal/hours"
	"github.com/levipshemish/jewgo-api/internal/httpapi"
	"github.com/levipshemish/jewgo-api/internal/middleware"
	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

// Service carries the dependencies shared by every admin handler.
type Service struct {
	store      storage.Store
	detector   *dedupe.Detector
	defaultLoc *time.Location
}

// NewService wires the admin handlers to a store. defaultLoc is the timezone
// used for open-now filters on venues that carry none of their own.
func NewService(store storage.Store, defaultLoc *time.Location) *Service {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &Service{
		store:      store,
		detector:   dedupe.NewDetector(store),
		defaultLoc: defaultLoc,
	}
}

// audit appends an entry to the trail. A failed append is logged and never
// fails the mutation that triggered it.
func (s *Service) audit(c *gin.Context, action, entityType, entityID, detail string) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return
	}
	entry := models.NewAuditEntry(claims.UserID, claims.Email, action, entityType, entityID, detail)
	if err := s.store.AppendAudit(c.Request.Context(), entry); err != nil {
		slog.Error("failed to append audit entry",
			"action", action, "entity_type", entityType, "entity_id", entityID, "error", err)
	}
}

// auditDetail marshals action context for the trail. Marshal failures turn
// into an empty detail rather than a failed mutation.
func auditDetail(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// restaurantRequest is the admin create/update payload. Identity, rating
// aggregates and timestamps are owned by the server and cannot be set here.
type restaurantRequest struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Address        string  `json:"address"`
	City           string  `json:"city"`
	State          string  `json:"state"`
	Zip            string  `json:"zip"`
	Phone          string  `json:"phone"`
	Website        string  `json:"website"`
	KosherCategory string  `json:"kosher_category"`
	Agency         string  `json:"agency"`
	CholovYisroel  bool    `json:"cholov_yisroel"`
	PasYisroel     bool    `json:"pas_yisroel"`
	PriceRange     string  `json:"price_range"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Timezone       string  `json:"timezone"`
	Hours          string  `json:"hours"`
	ImageURL       string  `json:"image_url"`
	Status         string  `json:"status"`
}

func (req *restaurantRequest) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return errors.New("name is required")
	}
	if req.KosherCategory != "" && !models.ValidKosherCategory(req.KosherCategory) {
		return fmt.Errorf("unknown kosher_category %q", req.KosherCategory)
	}
	if req.Status != "" && !models.ValidStatus(req.Status) {
		return fmt.Errorf("unknown status %q", req.Status)
	}
	if req.Hours != "" {
		if _, err := hours.Parse(req.Hours); err != nil {
			return fmt.Errorf("invalid hours: %v", err)
		}
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return fmt.Errorf("unknown timezone %q", req.Timezone)
		}
	}
	if req.Latitude < -90 || req.Latitude > 90 {
		return errors.New("latitude out of range")
	}
	if req.Longitude < -180 || req.Longitude > 180 {
		return errors.New("longitude out of range")
	}
	return nil
}

// apply copies the editable fields onto r. An empty status means "keep",
// so a plain field edit never un-approves a live record.
func (req *restaurantRequest) apply(r *models.Restaurant) {
	r.Name = req.Name
	r.Description = req.Description
	r.Address = req.Address
	r.City = req.City
	r.State = req.State
	r.Zip = req.Zip
	r.Phone = req.Phone
	r.Website = req.Website
	r.KosherCategory = req.KosherCategory
	r.Agency = req.Agency
	r.CholovYisroel = req.CholovYisroel
	r.PasYisroel = req.PasYisroel
	r.PriceRange = req.PriceRange
	r.Latitude = req.Latitude
	r.Longitude = req.Longitude
	r.Timezone = req.Timezone
	r.Hours = req.Hours
	r.ImageURL = req.ImageURL
	if req.Status != "" {
		r.Status = req.Status
	}
}

// ListRestaurants handles GET /api/admin/restaurants. Unlike the public list
// it defaults to every status and accepts status= to narrow the queue.
func (s *Service) ListRestaurants(c *gin.Context) {
	f, err := httpapi.ParseRestaurantFilter(c.Request.URL.Query())
	if err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if status := c.Query("status"); status != "" {
		if !models.ValidStatus(status) {
			httpapi.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown status %q", status))
			return
		}
		f.Status = status
	}
	f.Location = s.defaultLoc

	rows, total, err := s.store.ListRestaurants(c.Request.Context(), *f)
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	httpapi.RespondList(c, rows, total, f.Page, f.Limit)
}

// GetRestaurant handles GET /api/admin/restaurants/:id. Any status is
// visible here.
func (s *Service) GetRestaurant(c *gin.Context) {
	r, err := s.store.GetRestaurant(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	httpapi.RespondData(c, http.StatusOK, r)
}

// CreateRestaurant handles POST /api/admin/restaurants. The record is created
// regardless; the response carries likely duplicates so the back office can
// decide whether a second listing of the same venue should survive.
func (s *Service) CreateRestaurant(c *gin.Context) {
	var req restaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	r := &models.Restaurant{}
	req.apply(r)
	ctx := c.Request.Context()
	if err := s.store.CreateRestaurant(ctx, r); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	s.audit(c, models.AuditCreate, "restaurant", r.ID, auditDetail(gin.H{"name": r.Name}))

	matches, err := s.detector.FindMatches(ctx, r)
	if err != nil {
		// The record exists either way; a failed scan only costs the warning.
		slog.Warn("duplicate scan failed", "restaurant_id", r.ID, "error", err)
	}
	if matches == nil {
		matches = []dedupe.Match{}
	}
	httpapi.RespondData(c, http.StatusCreated, gin.H{"restaurant": r, "duplicates": matches})
}

// UpdateRestaurant handles PUT /api/admin/restaurants/:id with the full set
// of editable fields.
func (s *Service) UpdateRestaurant(c *gin.Context) {
	var req restaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	ctx := c.Request.Context()
	r, err := s.store.GetRestaurant(ctx, c.Param("id"))
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	req.apply(r)
	if err := s.store.UpdateRestaurant(ctx, r); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	s.audit(c, models.AuditUpdate, "restaurant", r.ID, auditDetail(gin.H{"name": r.Name}))
	httpapi.RespondData(c, http.StatusOK, r)
}

// ApproveRestaurant handles POST /api/admin/restaurants/:id/approve.
func (s *Service) ApproveRestaurant(c *gin.Context) {
	s.setRestaurantStatus(c, models.StatusApproved, models.AuditApprove)
}

// RejectRestaurant handles POST /api/admin/restaurants/:id/reject.
func (s *Service) RejectRestaurant(c *gin.Context) {
	s.setRestaurantStatus(c, models.StatusRejected, models.AuditReject)
}

func (s *Service) setRestaurantStatus(c *gin.Context, status, action string) {
	ctx := c.Request.Context()
	r, err := s.store.GetRestaurant(ctx, c.Param("id"))
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	r.Status = status
	if err := s.store.UpdateRestaurant(ctx, r); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	s.audit(c, action, "restaurant", r.ID, auditDetail(gin.H{"status": status}))
	httpapi.RespondData(c, http.StatusOK, r)
}

// DeleteRestaurant handles DELETE /api/admin/restaurants/:id. Reviews and
// gallery images go with it.
func (s *Service) DeleteRestaurant(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.DeleteRestaurant(c.Request.Context(), id); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	s.audit(c, models.AuditDelete, "restaurant", id, "")
	httpapi.RespondData(c, http.StatusOK, gin.H{"deleted": true})
}
