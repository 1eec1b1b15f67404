package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/auth"
)

const (
	// CSRFCookie holds the double-submit token minted by GET /api/auth/csrf.
	CSRFCookie = "jewgo_csrf"
	// CSRFHeader is where clients echo the cookie value back.
	CSRFHeader = "X-CSRF-Token"
)

// StatusCSRFMismatch is the 419 status legacy clients expect for CSRF
// failures. Not an IANA-registered code.
const StatusCSRFMismatch = 419

// RequireCSRF enforces the double-submit check on state-changing requests:
// the CSRF cookie must match the X-CSRF-Token header exactly.
func RequireCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(CSRFCookie)
		if err != nil || !auth.ValidCSRF(cookie, c.GetHeader(CSRFHeader)) {
			abortError(c, StatusCSRFMismatch, "csrf_mismatch", "csrf token missing or mismatched")
			return
		}
		c.Next()
	}
}
