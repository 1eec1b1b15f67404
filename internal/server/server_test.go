package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/config"
	"github.com/levipshemish/jewgo-api/internal/storage/sqlstore"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer builds the full engine on a throwaway sqlite store with
// Turnstile disabled so guest sessions mint without a challenge.
func newTestServer(t *testing.T, opts ...func(*config.Config)) (*gin.Engine, *sqlstore.Store) {
	t.Helper()

	cfg := config.Default()
	cfg.Server.Timezone = "UTC"
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = filepath.Join(t.TempDir(), "server.db")
	cfg.Auth.JWTSecret = testSecret
	cfg.Turnstile.Enabled = false
	cfg.Backend.BaseURL = "http://127.0.0.1:0"
	for _, opt := range opts {
		opt(cfg)
	}

	store, err := sqlstore.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	r, err := New(cfg, store, NewLimiters(cfg.RateLimit))
	if err != nil {
		t.Fatalf("failed to build server: %v", err)
	}
	return r, store
}

func perform(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("bad envelope %q: %v", w.Body.String(), err)
	}
	return env
}

func TestHealthAndReadiness(t *testing.T) {
	r, store := newTestServer(t)

	if w := perform(r, http.MethodGet, "/healthz", "", ""); w.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", w.Code)
	}
	if w := perform(r, http.MethodGet, "/readyz", "", ""); w.Code != http.StatusOK {
		t.Errorf("readyz = %d, want 200", w.Code)
	}

	store.Close()
	if w := perform(r, http.MethodGet, "/readyz", "", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with closed store = %d, want 503", w.Code)
	}
}

func TestMetricsExposition(t *testing.T) {
	r, _ := newTestServer(t)

	perform(r, http.MethodGet, "/healthz", "", "")

	w := perform(r, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "jewgo_http_requests_total") {
		t.Error("exposition is missing the request counter")
	}
}

func TestRouteGuards(t *testing.T) {
	r, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"restaurant list is public", http.MethodGet, "/api/v5/restaurants", http.StatusOK},
		{"search is public", http.MethodGet, "/api/v5/search?q=deli", http.StatusOK},
		{"csrf mint is public", http.MethodGet, "/api/auth/csrf", http.StatusOK},
		{"review posting needs a session", http.MethodPost, "/api/v5/restaurants/r1/reviews", http.StatusUnauthorized},
		{"selling needs a session", http.MethodPost, "/api/v5/marketplace", http.StatusUnauthorized},
		{"admin stats needs a session", http.MethodGet, "/api/admin/stats", http.StatusUnauthorized},
		{"admin bulk needs a session", http.MethodPost, "/api/admin/restaurants/bulk", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(r, tt.method, tt.path, "", "")
			if w.Code != tt.want {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, w.Code, tt.want)
			}
		})
	}
}

func TestGuestSessionLifecycle(t *testing.T) {
	r, _ := newTestServer(t)

	w := perform(r, http.MethodPost, "/api/auth/guest", "", `{"turnstile_token":""}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("guest mint = %d: %s", w.Code, w.Body.String())
	}
	var minted struct {
		Token string `json:"token"`
		User  struct {
			IsGuest bool `json:"is_guest"`
		} `json:"user"`
	}
	env := decode(t, w)
	if err := json.Unmarshal(env.Data, &minted); err != nil {
		t.Fatalf("bad guest payload: %v", err)
	}
	if minted.Token == "" || !minted.User.IsGuest {
		t.Fatalf("minted = %+v, want a guest session", minted)
	}

	if w := perform(r, http.MethodGet, "/api/auth/me", minted.Token, ""); w.Code != http.StatusOK {
		t.Errorf("me with guest token = %d: %s", w.Code, w.Body.String())
	}

	// Guests browse; selling needs a full account.
	w = perform(r, http.MethodPost, "/api/v5/marketplace", minted.Token,
		`{"title":"Menorah","description":"Brass, lightly used","price_cents":4500,"category":"judaica","city":"Teaneck","state":"NJ"}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("guest listing = %d, want 403: %s", w.Code, w.Body.String())
	}
}

func TestRegisteredUserCanReachGuardedRoutes(t *testing.T) {
	r, _ := newTestServer(t)

	w := perform(r, http.MethodPost, "/api/auth/register", "",
		`{"email":"miriam@example.com","name":"Miriam","password":"correct horse"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register = %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(decode(t, w).Data, &created); err != nil {
		t.Fatalf("bad register payload: %v", err)
	}

	// A plain user holds a session but not the moderator role.
	if w := perform(r, http.MethodGet, "/api/admin/stats", created.Token, ""); w.Code != http.StatusForbidden {
		t.Errorf("admin stats as user = %d, want 403", w.Code)
	}

	w = perform(r, http.MethodPost, "/api/auth/login", "",
		`{"email":"miriam@example.com","password":"correct horse"}`)
	if w.Code != http.StatusOK {
		t.Errorf("login = %d: %s", w.Code, w.Body.String())
	}
}

func TestAuthRateLimitKicksIn(t *testing.T) {
	r, _ := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Auth = config.BucketConfig{PerMinute: 1, Burst: 2}
	})

	body := `{"email":"nobody@example.com","password":"wrong"}`
	for i := 0; i < 2; i++ {
		if w := perform(r, http.MethodPost, "/api/auth/login", "", body); w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d = %d, want 401", i+1, w.Code)
		}
	}

	w := perform(r, http.MethodPost, "/api/auth/login", "", body)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("attempt 3 = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("429 is missing Retry-After")
	}
}

func TestLegacyProxyPassThrough(t *testing.T) {
	var hits atomic.Int64
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		if req.URL.Path != "/api/v4/restaurants" {
			t.Errorf("upstream path = %q", req.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"legacy":true}`))
	}))
	defer backend.Close()

	r, _ := newTestServer(t, func(cfg *config.Config) {
		cfg.Backend.BaseURL = backend.URL
	})

	for i := 0; i < 2; i++ {
		w := perform(r, http.MethodGet, "/api/v4/restaurants?b=2&a=1", "", "")
		if w.Code != http.StatusOK {
			t.Fatalf("proxy = %d: %s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), `"legacy":true`) {
			t.Errorf("body = %q, want the upstream payload", w.Body.String())
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("upstream hits = %d, want 1 (second GET should be cached)", got)
	}
}

func TestUnreachableBackendIsABadGateway(t *testing.T) {
	r, _ := newTestServer(t)

	w := perform(r, http.MethodGet, "/api/v4/anything", "", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("proxy to dead backend = %d, want 502", w.Code)
	}
	if env := decode(t, w); env.Success || env.Error.Code != "bad_gateway" {
		t.Errorf("envelope = %+v, want bad_gateway", env)
	}
}
