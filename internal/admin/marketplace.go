package admin

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/httpapi"
	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

// ListListings handles GET /api/admin/marketplace across every status.
func (s *Service) ListListings(c *gin.Context) {
	f := storage.ListingFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		City:     c.Query("city"),
		State:    c.Query("state"),
		SellerID: c.Query("seller_id"),
		Status:   c.Query("status"),
	}
	if f.Status != "" && !models.ValidStatus(f.Status) && f.Status != models.StatusSold {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown status %q", f.Status))
		return
	}
	f.Page, _ = strconv.Atoi(c.Query("page"))
	f.Limit, _ = strconv.Atoi(c.Query("limit"))

	rows, total, err := s.store.ListListings(c.Request.Context(), f)
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	httpapi.RespondList(c, rows, total, f.Page, f.Limit)
}

// ApproveListing handles POST /api/admin/marketplace/:id/approve.
func (s *Service) ApproveListing(c *gin.Context) {
	s.setListingStatus(c, models.StatusApproved, models.AuditApprove)
}

// RejectListing handles POST /api/admin/marketplace/:id/reject.
func (s *Service) RejectListing(c *gin.Context) {
	s.setListingStatus(c, models.StatusRejected, models.AuditReject)
}

type listingStatusRequest struct {
	Status string `json:"status"`
}

// UpdateListingStatus handles PATCH /api/admin/marketplace/:id/status. This
// is the only way a listing reaches sold, which keeps it publicly visible
// but off the live market.
func (s *Service) UpdateListingStatus(c *gin.Context) {
	var req listingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if !models.ValidStatus(req.Status) && req.Status != models.StatusSold {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown status %q", req.Status))
		return
	}
	s.setListingStatus(c, req.Status, models.AuditUpdate)
}

func (s *Service) setListingStatus(c *gin.Context, status, action string) {
	ctx := c.Request.Context()
	l, err := s.store.GetListing(ctx, c.Param("id"))
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	l.Status = status
	if err := s.store.UpdateListing(ctx, l); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	s.audit(c, action, "listing", l.ID, auditDetail(gin.H{"status": status}))
	httpapi.RespondData(c, http.StatusOK, l)
}

// DeleteListing handles DELETE /api/admin/marketplace/:id.
func (s *Service) DeleteListing(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.DeleteListing(c.Request.Context(), id); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	s.audit(c, models.AuditDelete, "listing", id, "")
	httpapi.RespondData(c, http.StatusOK, gin.H{"deleted": true})
}
