package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/httpapi"
	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

func (s *Service) adminVenueFilter(c *gin.Context) (storage.VenueFilter, error) {
	f := storage.VenueFilter{
		Query:  c.Query("q"),
		City:   c.Query("city"),
		State:  c.Query("state"),
		Status: c.Query("status"),
	}
	if f.Status != "" && !models.ValidStatus(f.Status) {
		return f, fmt.Errorf("unknown status %q", f.Status)
	}
	f.Page, _ = strconv.Atoi(c.Query("page"))
	f.Limit, _ = strconv.Atoi(c.Query("limit"))
	return f, nil
}

// synagogueRequest is the admin create/update payload for synagogues.
type synagogueRequest struct {
	Name         string  `json:"name"`
	Denomination string  `json:"denomination"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Zip          string  `json:"zip"`
	Phone        string  `json:"phone"`
	Website      string  `json:"website"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Hours        string  `json:"hours"`
	Status       string  `json:"status"`
}

func (req *synagogueRequest) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return errors.New("name is required")
	}
	if req.Denomination != "" && !models.ValidDenomination(req.Denomination) {
		return fmt.Errorf("unknown denomination %q", req.Denomination)
	}
	if req.Status != "" && !models.ValidStatus(req.Status) {
		return fmt.Errorf("unknown status %q", req.Status)
	}
	return nil
}

func (req *synagogueRequest) apply(syn *models.Synagogue) {
	syn.Name = req.Name
	syn.Denomination = req.Denomination
	syn.Address = req.Address
	syn.City = req.City
	syn.State = req.State
	syn.Zip = req.Zip
	syn.Phone = req.Phone
	syn.Website = req.Website
	syn.Latitude = req.Latitude
	syn.Longitude = req.Longitude
	syn.Hours = req.Hours
	if req.Status != "" {
		syn.Status = req.Status
	}
}

// ListSynagogues handles GET /api/admin/synagogues across every status.
func (s *Service) ListSynagogues(c *gin.Context) {
	f, err := s.adminVenueFilter(c)
	if err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	f.Denomination = c.Query("denomination")

	rows, total, err := s.store.ListSynagogues(c.Request.Context(), f)
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	httpapi.RespondList(c, rows, total, f.Page, f.Limit)
}

// CreateSynagogue handles POST /api/admin/synagogues.
func (s *Service) CreateSynagogue(c *gin.Context) {
	var req synagogueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	syn := &models.Synagogue{}
	req.apply(syn)
	if err := s.store.CreateSynagogue(c.Request.Context(), syn); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	s.audit(c, models.AuditCreate, "synagogue", syn.ID, auditDetail(gin.H{"name": syn.Name}))
	httpapi.RespondData(c, http.StatusCreated, syn)
}

// UpdateSynagogue handles PUT /api/admin/synagogues/:id. Status is editable
// here directly; venues have no separate approve queue.
func (s *Service) UpdateSynagogue(c *gin.Context) {
	var req synagogueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	ctx := c.Request.Context()
	syn, err := s.store.GetSynagogue(ctx, c.Param("id"))
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	req.apply(syn)
	if err := s.store.UpdateSynagogue(ctx, syn); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	s.audit(c, models.AuditUpdate, "synagogue", syn.ID, auditDetail(gin.H{"name": syn.Name}))
	httpapi.RespondData(c, http.StatusOK, syn)
}

// DeleteSynagogue handles DELETE /api/admin/synagogues/:id.
func (s *Service) DeleteSynagogue(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.DeleteSynagogue(c.Request.Context(), id); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	s.audit(c, models.AuditDelete, "synagogue", id, "")
	httpapi.RespondData(c, http.StatusOK, gin.H{"deleted": true})
}

// mikvahRequest is the admin create/update payload for mikvahs.
type mikvahRequest struct {
	Name                string  `json:"name"`
	Kind                string  `json:"kind"`
	Address             string  `json:"address"`
	City                string  `json:"city"`
	State               string  `json:"state"`
	Zip                 string  `json:"zip"`
	Phone               string  `json:"phone"`
	AppointmentRequired bool    `json:"appointment_required"`
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
	Hours               string  `json:"hours"`
	Status              string  `json:"status"`
}

func (req *mikvahRequest) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return errors.New("name is required")
	}
	if req.Kind != "" && !models.ValidMikvahKind(req.Kind) {
		return fmt.Errorf("unknown kind %q", req.Kind)
	}
	if req.Status != "" && !models.ValidStatus(req.Status) {
		return fmt.Errorf("unknown status %q", req.Status)
	}
	return nil
}

func (req *mikvahRequest) apply(m *models.Mikvah) {
	m.Name = req.Name
	m.Kind = req.Kind
	m.Address = req.Address
	m.City = req.City
	m.State = req.State
	m.Zip = req.Zip
	m.Phone = req.Phone
	m.AppointmentRequired = req.AppointmentRequired
	m.Latitude = req.Latitude
	m.Longitude = req.Longitude
	m.Hours = req.Hours
	if req.Status != "" {
		m.Status = req.Status
	}
}

// ListMikvahs handles GET /api/admin/mikvahs across every status.
func (s *Service) ListMikvahs(c *gin.Context) {
	f, err := s.adminVenueFilter(c)
	if err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	f.Kind = c.Query("kind")

	rows, total, err := s.store.ListMikvahs(c.Request.Context(), f)
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	httpapi.RespondList(c, rows, total, f.Page, f.Limit)
}

// CreateMikvah handles POST /api/admin/mikvahs.
func (s *Service) CreateMikvah(c *gin.Context) {
	var req mikvahRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	m := &models.Mikvah{}
	req.apply(m)
	if err := s.store.CreateMikvah(c.Request.Context(), m); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	s.audit(c, models.AuditCreate, "mikvah", m.ID, auditDetail(gin.H{"name": m.Name}))
	httpapi.RespondData(c, http.StatusCreated, m)
}

// UpdateMikvah handles PUT /api/admin/mikvahs/:id.
func (s *Service) UpdateMikvah(c *gin.Context) {
	var req mikvahRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	ctx := c.Request.Context()
	m, err := s.store.GetMikvah(ctx, c.Param("id"))
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	req.apply(m)
	if err := s.store.UpdateMikvah(ctx, m); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	s.audit(c, models.AuditUpdate, "mikvah", m.ID, auditDetail(gin.H{"name": m.Name}))
	httpapi.RespondData(c, http.StatusOK, m)
}

// DeleteMikvah handles DELETE /api/admin/mikvahs/:id.
func (s *Service) DeleteMikvah(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.DeleteMikvah(c.Request.Context(), id); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	s.audit(c, models.AuditDelete, "mikvah", id, "")
	httpapi.RespondData(c, http.StatusOK, gin.H{"deleted": true})
}
