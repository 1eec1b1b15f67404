package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/auth"
	"github.com/levipshemish/jewgo-api/internal/middleware"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

// SessionOptions carries the cookie policy for issued sessions.
type SessionOptions struct {
	CookieDomain string
	CookieSecure bool
	SessionTTL   time.Duration
	GuestTTL     time.Duration
}

// Session serves the /api/auth endpoints. Tokens ride both the response body
// (for mobile clients) and the session cookie (for browsers).
type Session struct {
	authn  auth.Authenticator
	users  auth.UserStorage
	tokens *auth.JWTManager
	guests *auth.GuestMinter
	opts   SessionOptions
}

// NewSession wires the session endpoints.
func NewSession(authn auth.Authenticator, users auth.UserStorage, tokens *auth.JWTManager, guests *auth.GuestMinter, opts SessionOptions) *Session {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.GuestTTL <= 0 {
		opts.GuestTTL = 2 * time.Hour
	}
	return &Session{authn: authn, users: users, tokens: tokens, guests: guests, opts: opts}
}

func (s *Session) setSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(ttl.Seconds()), "/", s.opts.CookieDomain, s.opts.CookieSecure, true)
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register.
func (s *Session) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		RespondError(c, http.StatusBadRequest, "bad_request", "a valid email is required")
		return
	}
	if req.Name == "" {
		RespondError(c, http.StatusBadRequest, "bad_request", "name is required")
		return
	}

	user, err := s.authn.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	switch {
	case errors.Is(err, auth.ErrWeakPassword):
		RespondError(c, http.StatusBadRequest, "weak_password", err.Error())
		return
	case errors.Is(err, auth.ErrEmailExists):
		RespondError(c, http.StatusBadRequest, "email_exists", err.Error())
		return
	case err != nil:
		slog.Error("register failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		slog.Error("token generation failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	s.setSessionCookie(c, token, s.opts.SessionTTL)
	RespondData(c, http.StatusCreated, gin.H{"token": token, "user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (s *Session) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	user, err := s.authn.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			RespondError(c, http.StatusUnauthorized, "invalid_credentials", err.Error())
			return
		}
		slog.Error("login failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		slog.Error("token generation failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	s.setSessionCookie(c, token, s.opts.SessionTTL)
	RespondData(c, http.StatusOK, gin.H{"token": token, "user": user})
}

type guestRequest struct {
	TurnstileToken string `json:"turnstile_token"`
}

// Guest handles POST /api/auth/guest: a Turnstile-gated anonymous session.
func (s *Session) Guest(c *gin.Context) {
	var req guestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	user, token, err := s.guests.Mint(c.Request.Context(), req.TurnstileToken, c.ClientIP())
	if err != nil {
		if errors.Is(err, auth.ErrCaptchaFailed) {
			RespondError(c, http.StatusBadRequest, "captcha_failed", err.Error())
			return
		}
		slog.Error("guest mint failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	s.setSessionCookie(c, token, s.opts.GuestTTL)
	RespondData(c, http.StatusCreated, gin.H{"token": token, "user": user})
}

// CSRF handles GET /api/auth/csrf: mints the double-submit token. The cookie
// is intentionally readable by scripts; clients echo it in X-CSRF-Token.
func (s *Session) CSRF(c *gin.Context) {
	token, err := auth.NewCSRFToken()
	if err != nil {
		slog.Error("csrf mint failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CSRFCookie, token, int(s.opts.SessionTTL.Seconds()), "/", s.opts.CookieDomain, s.opts.CookieSecure, false)
	RespondData(c, http.StatusOK, gin.H{"csrf_token": token})
}

// Me handles GET /api/auth/me. The user row is re-read so role changes and
// deletions take effect before the token expires.
func (s *Session) Me(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", "session required")
		return
	}

	user, err := s.users.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			RespondError(c, http.StatusUnauthorized, "unauthorized", "session user no longer exists")
			return
		}
		RespondStoreError(c, err)
		return
	}
	RespondData(c, http.StatusOK, user)
}

// Logout handles POST /api/auth/logout: drops the session and CSRF cookies.
func (s *Session) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", s.opts.CookieDomain, s.opts.CookieSecure, true)
	c.SetCookie(middleware.CSRFCookie, "", -1, "/", s.opts.CookieDomain, s.opts.CookieSecure, false)
	RespondData(c, http.StatusOK, gin.H{"logged_out": true})
}
