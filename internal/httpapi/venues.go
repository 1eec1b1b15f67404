package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

var venueSorts = map[string]bool{
	"newest":   true,
	"name":     true,
	"distance": true,
}

// parseVenueFilter covers the shared synagogue/mikvah query parameters.
func parseVenueFilter(values url.Values) (*storage.VenueFilter, error) {
	f := &storage.VenueFilter{
		Query: strings.TrimSpace(values.Get("q")),
		City:  strings.TrimSpace(values.Get("city")),
		State: strings.TrimSpace(values.Get("state")),
	}

	var err error
	if f.Lat, f.Lng, err = parseLatLng(values); err != nil {
		return nil, err
	}
	if v := values.Get("radius_km"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r <= 0 {
			return nil, fmt.Errorf("radius_km must be a positive number")
		}
		if !f.HasGeo() {
			return nil, fmt.Errorf("radius_km requires lat and lng")
		}
		f.RadiusKm = r
	}
	if v := values.Get("sort"); v != "" {
		if !venueSorts[v] {
			return nil, fmt.Errorf("unknown sort %q", v)
		}
		if v == "distance" && !f.HasGeo() {
			return nil, fmt.Errorf("sort=distance requires lat and lng")
		}
		f.Sort = v
	}
	if f.Page, err = parseOptionalInt(values, "page"); err != nil {
		return nil, err
	}
	if f.Limit, err = parseOptionalInt(values, "limit"); err != nil {
		return nil, err
	}
	return f, nil
}

// ListSynagogues handles GET /api/v5/synagogues.
func (a *API) ListSynagogues(c *gin.Context) {
	f, err := parseVenueFilter(c.Request.URL.Query())
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	f.Denomination = strings.TrimSpace(c.Query("denomination"))
	f.Status = models.StatusApproved

	rows, total, err := a.store.ListSynagogues(c.Request.Context(), *f)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondList(c, rows, total, f.Page, f.Limit)
}

// GetSynagogue handles GET /api/v5/synagogues/:id.
func (a *API) GetSynagogue(c *gin.Context) {
	s, err := a.store.GetSynagogue(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	if s.Status != models.StatusApproved {
		RespondError(c, http.StatusNotFound, "not_found", "not found")
		return
	}
	RespondData(c, http.StatusOK, s)
}

// ListMikvahs handles GET /api/v5/mikvahs.
func (a *API) ListMikvahs(c *gin.Context) {
	f, err := parseVenueFilter(c.Request.URL.Query())
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	f.Kind = strings.TrimSpace(c.Query("kind"))
	f.Status = models.StatusApproved

	rows, total, err := a.store.ListMikvahs(c.Request.Context(), *f)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondList(c, rows, total, f.Page, f.Limit)
}

// GetMikvah handles GET /api/v5/mikvahs/:id.
func (a *API) GetMikvah(c *gin.Context) {
	m, err := a.store.GetMikvah(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	if m.Status != models.StatusApproved {
		RespondError(c, http.StatusNotFound, "not_found", "not found")
		return
	}
	RespondData(c, http.StatusOK, m)
}
