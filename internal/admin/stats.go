package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/httpapi"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

// ListAudit handles GET /api/admin/audit, newest entries first.
func (s *Service) ListAudit(c *gin.Context) {
	f := storage.AuditFilter{
		AdminID:    c.Query("admin_id"),
		EntityType: c.Query("entity_type"),
		Action:     c.Query("action"),
	}
	f.Page, _ = strconv.Atoi(c.Query("page"))
	f.Limit, _ = strconv.Atoi(c.Query("limit"))

	rows, total, err := s.store.ListAudit(c.Request.Context(), f)
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	httpapi.RespondList(c, rows, total, f.Page, f.Limit)
}

// Stats handles GET /api/admin/stats: per-status counts for the dashboard.
func (s *Service) Stats(c *gin.Context) {
	stats, err := s.store.CountByStatus(c.Request.Context())
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	httpapi.RespondData(c, http.StatusOK, stats)
}
