package admin

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/httpapi"
	"github.com/levipshemish/jewgo-api/internal/middleware"
	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

// ListUsers handles GET /api/admin/users with q= matching email and display
// name and role= narrowing to one access level.
func (s *Service) ListUsers(c *gin.Context) {
	f := storage.UserFilter{
		Query: c.Query("q"),
		Role:  c.Query("role"),
	}
	f.Page, _ = strconv.Atoi(c.Query("page"))
	f.Limit, _ = strconv.Atoi(c.Query("limit"))

	rows, total, err := s.store.ListUsers(c.Request.Context(), f)
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	httpapi.RespondList(c, rows, total, f.Page, f.Limit)
}

type roleChangeRequest struct {
	Role models.Role `json:"role"`
}

// UpdateUserRole handles PATCH /api/admin/users/:id/role. Only a super_admin
// may grant or revoke access levels, and never their own: locking yourself
// out of the only super_admin account is unrecoverable from the API.
func (s *Service) UpdateUserRole(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok || claims.Role != models.RoleSuperAdmin {
		httpapi.RespondError(c, http.StatusForbidden, "forbidden", "role changes require super_admin")
		return
	}

	var req roleChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if req.Role.Level() < 0 {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown role %q", req.Role))
		return
	}

	id := c.Param("id")
	if id == claims.UserID {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "cannot change your own role")
		return
	}

	ctx := c.Request.Context()
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	oldRole := user.Role
	if err := s.store.UpdateUserRole(ctx, id, req.Role); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	user.Role = req.Role
	s.audit(c, models.AuditRoleChange, "user", id, auditDetail(gin.H{"from": oldRole, "to": req.Role}))
	httpapi.RespondData(c, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/admin/users/:id. Super_admin accounts can
// only be removed by another super_admin, and nobody deletes themselves.
func (s *Service) DeleteUser(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		httpapi.RespondError(c, http.StatusUnauthorized, "unauthorized", "session required")
		return
	}

	id := c.Param("id")
	if id == claims.UserID {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "cannot delete your own account")
		return
	}

	ctx := c.Request.Context()
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	if user.Role == models.RoleSuperAdmin && claims.Role != models.RoleSuperAdmin {
		httpapi.RespondError(c, http.StatusForbidden, "forbidden", "only super_admin may delete a super_admin")
		return
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}
	s.audit(c, models.AuditDelete, "user", id, auditDetail(gin.H{"email": user.Email, "role": user.Role}))
	httpapi.RespondData(c, http.StatusOK, gin.H{"deleted": true})
}
