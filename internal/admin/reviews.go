package admin

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/httpapi"
	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

// ListReviews handles GET /api/admin/reviews. The moderation queue is the
// same list filtered to status=pending.
func (s *Service) ListReviews(c *gin.Context) {
	f := storage.ReviewFilter{
		RestaurantID: c.Query("restaurant_id"),
		UserID:       c.Query("user_id"),
	}
	if status := c.Query("status"); status != "" {
		if !models.ValidStatus(status) {
			httpapi.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown status %q", status))
			return
		}
		f.Status = status
	}
	f.Page, _ = strconv.Atoi(c.Query("page"))
	f.Limit, _ = strconv.Atoi(c.Query("limit"))

	rows, total, err := s.store.ListReviews(c.Request.Context(), f)
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	httpapi.RespondList(c, rows, total, f.Page, f.Limit)
}

// ApproveReview handles POST /api/admin/reviews/:id/approve. Approval puts
// the review into the restaurant's rating aggregate.
func (s *Service) ApproveReview(c *gin.Context) {
	s.setReviewStatus(c, models.StatusApproved, models.AuditApprove)
}

// RejectReview handles POST /api/admin/reviews/:id/reject. Rejecting a
// previously approved review pulls it back out of the aggregate.
func (s *Service) RejectReview(c *gin.Context) {
	s.setReviewStatus(c, models.StatusRejected, models.AuditReject)
}

func (s *Service) setReviewStatus(c *gin.Context, status, action string) {
	ctx := c.Request.Context()
	rv, err := s.store.GetReview(ctx, c.Param("id"))
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	rv.Status = status
	if err := s.store.UpdateReview(ctx, rv); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	if err := s.store.RecalcRestaurantRating(ctx, rv.RestaurantID); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	s.audit(c, action, "review", rv.ID, auditDetail(gin.H{"restaurant_id": rv.RestaurantID, "status": status}))
	httpapi.RespondData(c, http.StatusOK, rv)
}

// reviewEditRequest is the moderation edit payload. A zero rating means
// "keep the submitted rating".
type reviewEditRequest struct {
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

// UpdateReview handles PATCH /api/admin/reviews/:id. Moderators trim abusive
// content without changing the review's status; edits to approved reviews
// re-run the rating aggregate in case the rating moved.
func (s *Service) UpdateReview(c *gin.Context) {
	var req reviewEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "content is required")
		return
	}
	if req.Rating != 0 && !models.ValidRating(req.Rating) {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "rating must be between 1 and 5")
		return
	}

	ctx := c.Request.Context()
	rv, err := s.store.GetReview(ctx, c.Param("id"))
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	rv.Content = req.Content
	if req.Rating != 0 {
		rv.Rating = req.Rating
	}
	if err := s.store.UpdateReview(ctx, rv); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	if rv.Status == models.StatusApproved {
		if err := s.store.RecalcRestaurantRating(ctx, rv.RestaurantID); err != nil {
			httpapi.RespondStoreError(c, err)
			return
		}
	}
	s.audit(c, models.AuditUpdate, "review", rv.ID, auditDetail(gin.H{"restaurant_id": rv.RestaurantID}))
	httpapi.RespondData(c, http.StatusOK, rv)
}

// DeleteReview handles DELETE /api/admin/reviews/:id. Deleting an approved
// review re-runs the aggregate it was counted in.
func (s *Service) DeleteReview(c *gin.Context) {
	ctx := c.Request.Context()
	rv, err := s.store.GetReview(ctx, c.Param("id"))
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	if err := s.store.DeleteReview(ctx, rv.ID); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	if rv.Status == models.StatusApproved {
		if err := s.store.RecalcRestaurantRating(ctx, rv.RestaurantID); err != nil {
			httpapi.RespondStoreError(c, err)
			return
		}
	}
	s.audit(c, models.AuditDelete, "review", rv.ID, auditDetail(gin.H{"restaurant_id": rv.RestaurantID}))
	httpapi.RespondData(c, http.StatusOK, gin.H{"deleted": true})
}
