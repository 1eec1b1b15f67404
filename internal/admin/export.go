package admin

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/httpapi"
	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

var restaurantCSVHeader = []string{
	"id", "name", "description", "address", "city", "state", "zip",
	"phone", "website", "kosher_category", "agency",
	"cholov_yisroel", "pas_yisroel", "price_range",
	"latitude", "longitude", "timezone", "hours", "image_url",
	"status", "rating_avg", "rating_count", "created_at", "updated_at",
}

func restaurantCSVRow(r *models.Restaurant) []string {
	return []string{
		r.ID, r.Name, r.Description, r.Address, r.City, r.State, r.Zip,
		r.Phone, r.Website, r.KosherCategory, r.Agency,
		strconv.FormatBool(r.CholovYisroel), strconv.FormatBool(r.PasYisroel), r.PriceRange,
		strconv.FormatFloat(r.Latitude, 'f', -1, 64), strconv.FormatFloat(r.Longitude, 'f', -1, 64),
		r.Timezone, r.Hours, r.ImageURL,
		r.Status, strconv.FormatFloat(r.RatingAvg, 'f', -1, 64), strconv.FormatInt(r.RatingCount, 10),
		csvTime(r.CreatedAt), csvTime(r.UpdatedAt),
	}
}

var reviewCSVHeader = []string{
	"id", "restaurant_id", "user_id", "author_name",
	"rating", "content", "status", "created_at", "updated_at",
}

func reviewCSVRow(rv *models.Review) []string {
	return []string{
		rv.ID, rv.RestaurantID, rv.UserID, rv.AuthorName,
		strconv.Itoa(rv.Rating), rv.Content, rv.Status,
		csvTime(rv.CreatedAt), csvTime(rv.UpdatedAt),
	}
}

// csvTime renders a Unix timestamp the way spreadsheets expect.
func csvTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}

func exportFilename(entity string) string {
	return fmt.Sprintf("%s-%s.csv", entity, time.Now().UTC().Format("2006-01-02"))
}

// writeCSV streams header and rows. The 200 and the headers are committed
// before the first row, so a mid-stream failure can only truncate the file;
// it is logged and the client sees a short read.
func writeCSV(c *gin.Context, filename string, header []string, rows [][]string) error {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	w.Write(header)
	for _, row := range rows {
		w.Write(row)
	}
	w.Flush()
	return w.Error()
}

// ExportRestaurants handles GET /api/admin/restaurants/export: the same
// filters as the admin list, every matching row, no pagination.
func (s *Service) ExportRestaurants(c *gin.Context) {
	f, err := httpapi.ParseRestaurantFilter(c.Request.URL.Query())
	if err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if status := c.Query("status"); status != "" {
		if !models.ValidStatus(status) {
			httpapi.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown status %q", status))
			return
		}
		f.Status = status
	}
	f.Location = s.defaultLoc
	f.All = true

	rows, _, err := s.store.ListRestaurants(c.Request.Context(), *f)
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, restaurantCSVRow(r))
	}
	if err := writeCSV(c, exportFilename("restaurants"), restaurantCSVHeader, records); err != nil {
		slog.Error("restaurant export failed", "rows", len(rows), "error", err)
		return
	}
	s.audit(c, models.AuditExport, "restaurant", "", auditDetail(gin.H{"rows": len(rows)}))
}

// ExportReviews handles GET /api/admin/reviews/export.
func (s *Service) ExportReviews(c *gin.Context) {
	f := storage.ReviewFilter{
		RestaurantID: c.Query("restaurant_id"),
		UserID:       c.Query("user_id"),
		All:          true,
	}
	if status := c.Query("status"); status != "" {
		if !models.ValidStatus(status) {
			httpapi.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown status %q", status))
			return
		}
		f.Status = status
	}

	rows, _, err := s.store.ListReviews(c.Request.Context(), f)
	if err != nil {
		httpapi.RespondStoreError(c, err)
		return
	}

	records := make([][]string, 0, len(rows))
	for _, rv := range rows {
		records = append(records, reviewCSVRow(rv))
	}
	if err := writeCSV(c, exportFilename("reviews"), reviewCSVHeader, records); err != nil {
		slog.Error("review export failed", "rows", len(rows), "error", err)
		return
	}
	s.audit(c, models.AuditExport, "review", "", auditDetail(gin.H{"rows": len(rows)}))
}
