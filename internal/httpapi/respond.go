// Package httpapi implements the public JSON API under /api/v5 and the
// session endpoints under /api/auth. Every response uses the same envelope:
// {"success":true,"data":...} or {"success":false,"error":{code,message}}.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/storage"
)

// RespondData wraps a payload in the success envelope.
func RespondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// listPayload is the shape every paginated collection responds with.
type listPayload struct {
	Items any `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func RespondList(c *gin.Context, items any, total, page, limit int) {
	if page < 1 {
		page = 1
	}
	limit, _ = storage.Window(page, limit)
	RespondData(c, http.StatusOK, listPayload{Items: items, Total: total, Page: page, Limit: limit})
}

func RespondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"success": false, "error": gin.H{"code": code, "message": message}})
}

// RespondStoreError maps storage failures onto the envelope. Missing rows
// are 404; anything else logs and returns an opaque 500.
func RespondStoreError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		RespondError(c, http.StatusNotFound, "not_found", "not found")
		return
	}
	slog.Error("storage error", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	RespondError(c, http.StatusInternalServerError, "internal", "internal server error")
}
