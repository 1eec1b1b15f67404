// Package server assembles the application: it wires storage, auth,
// the consumer API, the admin back office, and the legacy proxy into a
// single gin engine behind the shared middleware chain.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/admin"
	"github.com/levipshemish/jewgo-api/internal/auth"
	"github.com/levipshemish/jewgo-api/internal/config"
	"github.com/levipshemish/jewgo-api/internal/httpapi"
	"github.com/levipshemish/jewgo-api/internal/metrics"
	"github.com/levipshemish/jewgo-api/internal/middleware"
	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/proxy"
	"github.com/levipshemish/jewgo-api/internal/ratelimit"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

// Limiters holds one token bucket per throttled surface. Auth and guest
// buckets key by client IP; review and bulk key by session.
type Limiters struct {
	Auth   *ratelimit.Limiter
	Guest  *ratelimit.Limiter
	Review *ratelimit.Limiter
	Bulk   *ratelimit.Limiter
}

// NewLimiters builds the per-surface limiters from configuration.
func NewLimiters(cfg config.RateLimitConfig) *Limiters {
	return &Limiters{
		Auth:   ratelimit.NewLimiter(cfg.Auth.PerSecond(), cfg.Auth.Burst),
		Guest:  ratelimit.NewLimiter(cfg.Guest.PerSecond(), cfg.Guest.Burst),
		Review: ratelimit.NewLimiter(cfg.Review.PerSecond(), cfg.Review.Burst),
		Bulk:   ratelimit.NewLimiter(cfg.Bulk.PerSecond(), cfg.Bulk.Burst),
	}
}

// Run starts the idle-bucket janitors and returns immediately. Eviction
// stops when ctx is canceled.
func (l *Limiters) Run(ctx context.Context, interval time.Duration) {
	go l.Auth.Run(ctx, interval)
	go l.Guest.Run(ctx, interval)
	go l.Review.Run(ctx, interval)
	go l.Bulk.Run(ctx, interval)
}

// New builds the gin engine with every route registered. The caller owns
// the listener; New never binds a port.
func New(cfg *config.Config, store storage.Store, lims *Limiters) (*gin.Engine, error) {
	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Server.Timezone, err)
	}

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.SessionDuration(), cfg.Auth.GuestDuration())
	passwords := auth.NewPasswordAuthenticator(store)

	// With Turnstile disabled every guest challenge passes. That is a
	// development convenience, never a production setting.
	verifier := auth.DisabledTurnstileVerifier()
	if cfg.Turnstile.Enabled {
		verifier = auth.NewTurnstileVerifier(cfg.Turnstile.SecretKey, cfg.Turnstile.VerifyURL, cfg.Turnstile.TimeoutDuration())
	}
	guests := auth.NewGuestMinter(store, verifier, tokens)

	api := httpapi.NewAPI(store, loc)
	session := httpapi.NewSession(passwords, store, tokens, guests, httpapi.SessionOptions{
		CookieDomain: cfg.Auth.CookieDomain,
		CookieSecure: cfg.Auth.CookieSecure,
		SessionTTL:   cfg.Auth.SessionDuration(),
		GuestTTL:     cfg.Auth.GuestDuration(),
	})
	backOffice := admin.NewService(store, loc)

	legacy := proxy.New(
		proxy.NewClient(cfg.Backend.BaseURL, cfg.Backend.TimeoutDuration()),
		cfg.Backend.CacheTTLDuration(),
		cfg.Backend.CacheMaxEntries,
	)

	r := gin.New()
	r.Use(
		middleware.Recovery(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.CORS(cfg.Server.CORSOrigins),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if err := store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	registerAuth(r, session, tokens, lims)
	registerAPI(r, api, tokens, lims)

	// Everything under /api/v4 is replayed against the legacy backend.
	r.Any("/api/v4/*rest", legacy.Handler())

	registerAdmin(r, backOffice, tokens, lims)

	return r, nil
}

func registerAuth(r *gin.Engine, session *httpapi.Session, tokens *auth.JWTManager, lims *Limiters) {
	g := r.Group("/api/auth")
	g.POST("/register", middleware.RateLimit(lims.Auth, "auth", middleware.KeyByIP), session.Register)
	g.POST("/login", middleware.RateLimit(lims.Auth, "auth", middleware.KeyByIP), session.Login)
	g.POST("/guest", middleware.RateLimit(lims.Guest, "guest", middleware.KeyByIP), session.Guest)
	g.GET("/csrf", session.CSRF)
	g.GET("/me", middleware.RequireAuth(tokens), session.Me)
	g.POST("/logout", session.Logout)
}

func registerAPI(r *gin.Engine, api *httpapi.API, tokens *auth.JWTManager, lims *Limiters) {
	// Browsing is anonymous, but when a session is present the access log
	// and session-keyed limiters should see it.
	g := r.Group("/api/v5", middleware.OptionalAuth(tokens))
	g.GET("/restaurants", api.ListRestaurants)
	g.GET("/restaurants/:id", api.GetRestaurant)
	g.GET("/restaurants/:id/reviews", api.ListRestaurantReviews)
	g.POST("/restaurants/:id/reviews",
		middleware.RequireAuth(tokens),
		middleware.RateLimit(lims.Review, "review", middleware.KeyBySession),
		api.CreateReview,
	)
	g.GET("/synagogues", api.ListSynagogues)
	g.GET("/synagogues/:id", api.GetSynagogue)
	g.GET("/mikvahs", api.ListMikvahs)
	g.GET("/mikvahs/:id", api.GetMikvah)
	g.GET("/marketplace", api.ListListings)
	g.GET("/marketplace/:id", api.GetListing)

	// Guests can read the marketplace but only full accounts may sell.
	g.POST("/marketplace",
		middleware.RequireAuth(tokens),
		middleware.RequireRole(models.RoleUser),
		api.CreateListing,
	)
	g.GET("/search", api.Search)
}

// registerAdmin mounts the back office. Reads need moderator; mutations
// add CSRF; deletes and role changes add admin.
func registerAdmin(r *gin.Engine, svc *admin.Service, tokens *auth.JWTManager, lims *Limiters) {
	adm := r.Group("/api/admin")
	adm.Use(middleware.RequireAuth(tokens), middleware.RequireRole(models.RoleModerator))

	adm.GET("/stats", svc.Stats)
	adm.GET("/audit", svc.ListAudit)
	adm.GET("/users", svc.ListUsers)
	adm.GET("/restaurants", svc.ListRestaurants)
	adm.GET("/restaurants/export", svc.ExportRestaurants)
	adm.GET("/restaurants/:id", svc.GetRestaurant)
	adm.GET("/restaurants/:id/images", svc.ListImages)
	adm.GET("/reviews", svc.ListReviews)
	adm.GET("/reviews/export", svc.ExportReviews)
	adm.GET("/marketplace", svc.ListListings)
	adm.GET("/synagogues", svc.ListSynagogues)
	adm.GET("/mikvahs", svc.ListMikvahs)

	mutate := adm.Group("", middleware.RequireCSRF())
	mutate.POST("/restaurants", svc.CreateRestaurant)
	mutate.PUT("/restaurants/:id", svc.UpdateRestaurant)
	mutate.POST("/restaurants/:id/approve", svc.ApproveRestaurant)
	mutate.POST("/restaurants/:id/reject", svc.RejectRestaurant)
	mutate.POST("/restaurants/bulk",
		middleware.RateLimit(lims.Bulk, "bulk", middleware.KeyBySession),
		svc.BulkRestaurants,
	)
	mutate.POST("/restaurants/:id/images", svc.CreateImage)
	mutate.PUT("/restaurants/:id/images/order", svc.ReorderImages)
	mutate.PATCH("/images/:id", svc.UpdateImage)
	mutate.POST("/reviews/:id/approve", svc.ApproveReview)
	mutate.POST("/reviews/:id/reject", svc.RejectReview)
	mutate.PATCH("/reviews/:id", svc.UpdateReview)
	mutate.POST("/marketplace/:id/approve", svc.ApproveListing)
	mutate.POST("/marketplace/:id/reject", svc.RejectListing)
	mutate.PATCH("/marketplace/:id/status", svc.UpdateListingStatus)
	mutate.POST("/synagogues", svc.CreateSynagogue)
	mutate.PUT("/synagogues/:id", svc.UpdateSynagogue)
	mutate.POST("/mikvahs", svc.CreateMikvah)
	mutate.PUT("/mikvahs/:id", svc.UpdateMikvah)

	destructive := adm.Group("", middleware.RequireCSRF(), middleware.RequireRole(models.RoleAdmin))
	destructive.DELETE("/restaurants/:id", svc.DeleteRestaurant)
	destructive.DELETE("/reviews/:id", svc.DeleteReview)
	destructive.DELETE("/images/:id", svc.DeleteImage)
	destructive.DELETE("/marketplace/:id", svc.DeleteListing)
	destructive.DELETE("/synagogues/:id", svc.DeleteSynagogue)
	destructive.DELETE("/mikvahs/:id", svc.DeleteMikvah)
	destructive.DELETE("/users/:id", svc.DeleteUser)
	destructive.PATCH("/users/:id/role", svc.UpdateUserRole)
}
