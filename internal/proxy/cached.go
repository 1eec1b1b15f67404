// Package proxy forwards /api/v4 traffic to the legacy upstream. GETs are
// served through a process-local TTL cache with singleflight collapsing, so
// a burst of identical requests costs one upstream call. Everything else
// passes straight through.
package proxy

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/levipshemish/jewgo-api/internal/metrics"
)

const (
	defaultTTL        = 60 * time.Second
	defaultMaxEntries = 512
)

type cacheEntry struct {
	resp      *Response
	expiresAt time.Time
}

// Proxy is the caching layer in front of an upstream Client.
type Proxy struct {
	client     *Client
	ttl        time.Duration
	maxEntries int

	mu      sync.Mutex
	entries map[string]*cacheEntry
	group   singleflight.Group

	now func() time.Time
}

// New wraps the client with a TTL response cache. Non-positive ttl or
// maxEntries fall back to the defaults (60s, 512 entries).
func New(client *Client, ttl time.Duration, maxEntries int) *Proxy {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Proxy{
		client:     client,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]*cacheEntry),
		now:        time.Now,
	}
}

// Handler proxies the incoming request to the upstream, replaying cached
// bodies for repeated GETs. Upstream 5xx and transport failures surface as a
// 502 envelope.
func (p *Proxy) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		pathAndQuery := c.Request.URL.Path
		if q := canonicalQuery(c.Request.URL.RawQuery); q != "" {
			pathAndQuery += "?" + q
		}

		var resp *Response
		var err error
		if c.Request.Method == http.MethodGet {
			resp, err = p.get(c.Request.Context(), pathAndQuery, c.Request.Header, c.ClientIP())
		} else {
			resp, err = p.client.Do(c.Request.Context(), c.Request.Method, pathAndQuery, c.Request.Header, c.Request.Body, c.ClientIP())
		}

		if err != nil {
			metrics.ProxyUpstreamError()
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error":   gin.H{"code": "bad_gateway", "message": "upstream unavailable"},
			})
			return
		}
		if resp.Status >= http.StatusInternalServerError {
			metrics.ProxyUpstreamError()
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error":   gin.H{"code": "bad_gateway", "message": "upstream error"},
			})
			return
		}

		c.Data(resp.Status, resp.ContentType, resp.Body)
	}
}

// get serves a GET from cache when fresh, otherwise fetches once per key no
// matter how many requests are waiting.
func (p *Proxy) get(ctx context.Context, pathAndQuery string, header http.Header, clientIP string) (*Response, error) {
	key := http.MethodGet + " " + pathAndQuery

	if resp, ok := p.lookup(key); ok {
		metrics.ProxyCacheHit()
		return resp, nil
	}
	metrics.ProxyCacheMiss()

	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		// A concurrent flight may have filled the cache while we queued.
		if resp, ok := p.lookup(key); ok {
			return resp, nil
		}
		resp, err := p.client.Do(ctx, http.MethodGet, pathAndQuery, header, nil, clientIP)
		if err != nil {
			return nil, err
		}
		if resp.Status < http.StatusInternalServerError {
			p.store(key, resp)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Response), nil
}

func (p *Proxy) lookup(key string) (*Response, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[key]
	if !ok {
		return nil, false
	}
	if p.now().After(e.expiresAt) {
		delete(p.entries, key)
		return nil, false
	}
	return e.resp, true
}

func (p *Proxy) store(key string, resp *Response) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.entries) >= p.maxEntries {
		p.evictLocked()
	}
	p.entries[key] = &cacheEntry{resp: resp, expiresAt: p.now().Add(p.ttl)}
}

// evictLocked drops expired entries, and if the cache is still full, the
// entry closest to expiry. Callers hold p.mu.
func (p *Proxy) evictLocked() {
	now := p.now()
	for k, e := range p.entries {
		if now.After(e.expiresAt) {
			delete(p.entries, k)
		}
	}
	if len(p.entries) < p.maxEntries {
		return
	}

	var oldestKey string
	var oldestExpiry time.Time
	for k, e := range p.entries {
		if oldestKey == "" || e.expiresAt.Before(oldestExpiry) {
			oldestKey, oldestExpiry = k, e.expiresAt
		}
	}
	if oldestKey != "" {
		delete(p.entries, oldestKey)
	}
}

// canonicalQuery re-encodes the query with sorted keys so equivalent URLs
// share a cache entry. Unparseable queries are used verbatim.
func canonicalQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return raw
	}
	return values.Encode()
}
