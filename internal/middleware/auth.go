// Package middleware holds the gin middleware chain: session auth, role
// checks, CSRF, rate limiting, CORS, logging, recovery and metrics.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/auth"
	"github.com/levipshemish/jewgo-api/internal/models"
)

// SessionCookie carries the JWT for browser clients. Mobile clients send the
// same token as a Bearer header instead.
const SessionCookie = "jewgo_session"

// claimsKey is the gin context key the validated session claims live under.
const claimsKey = "auth_claims"

// GetClaims returns the session claims attached by RequireAuth or
// OptionalAuth, if any.
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// abortError stops the chain with the service's error envelope.
func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   gin.H{"code": code, "message": message},
	})
}

// sessionToken pulls the JWT from the Authorization header or, failing that,
// the session cookie.
func sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return token
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// RequireAuth validates the session token and attaches its claims to the
// request. Requests without a valid session are rejected with 401.
func RequireAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			abortError(c, http.StatusUnauthorized, "unauthorized", auth.ErrMissingToken.Error())
			return
		}

		claims, err := jwtManager.Validate(token)
		if err != nil {
			abortError(c, http.StatusUnauthorized, "unauthorized", auth.ErrInvalidToken.Error())
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// OptionalAuth attaches claims when a valid session is present but lets
// anonymous requests through untouched.
func OptionalAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := sessionToken(c); token != "" {
			if claims, err := jwtManager.Validate(token); err == nil {
				c.Set(claimsKey, claims)
			}
		}
		c.Next()
	}
}

// RequireRole rejects sessions below the minimum role. Guest sessions never
// pass, whatever the minimum: role-gated surfaces are for named accounts.
// Must run after RequireAuth.
func RequireRole(min models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			abortError(c, http.StatusUnauthorized, "unauthorized", auth.ErrMissingToken.Error())
			return
		}
		if claims.Guest || !claims.Role.AtLeast(min) {
			abortError(c, http.StatusForbidden, "forbidden", "insufficient permissions")
			return
		}
		c.Next()
	}
}
