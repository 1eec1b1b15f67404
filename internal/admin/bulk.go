package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/levipshemish/jewgo-api/internal/httpapi"
	"github.com/levipshemish/jewgo-api/internal/metrics"
	"github.com/levipshemish/jewgo-api/internal/middleware"
	"github.com/levipshemish/jewgo-api/internal/models"
)

const (
	// maxBulkIDs caps one bulk call; larger jobs are split by the caller.
	maxBulkIDs = 500

	// bulkBatchSize is how many IDs share one transaction.
	bulkBatchSize = 50

	// bulkMaxInFlight bounds concurrent batches so a big job cannot drain
	// the connection pool.
	bulkMaxInFlight = 4
)

// BulkRequest is the body of POST /api/admin/restaurants/bulk. Params carries
// action-specific arguments, currently only set_agency's "agency".
type BulkRequest struct {
	Action string            `json:"action"`
	IDs    []string          `json:"ids"`
	Params map[string]string `json:"params,omitempty"`
}

// BulkResult accounts for every requested ID: succeeded plus failed equals
// requested, with failures explained in Errors.
type BulkResult struct {
	Requested int      `json:"requested"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// bulkApply applies one batch and reports how many rows it touched.
type bulkApply func(ctx context.Context, ids []string) (int, error)

func (s *Service) bulkAction(req *BulkRequest) (bulkApply, error) {
	switch req.Action {
	case "approve":
		return func(ctx context.Context, ids []string) (int, error) {
			return s.store.UpdateRestaurantStatuses(ctx, ids, models.StatusApproved)
		}, nil
	case "reject":
		return func(ctx context.Context, ids []string) (int, error) {
			return s.store.UpdateRestaurantStatuses(ctx, ids, models.StatusRejected)
		}, nil
	case "delete":
		return s.store.DeleteRestaurants, nil
	case "set_agency":
		agency := strings.TrimSpace(req.Params["agency"])
		if agency == "" {
			return nil, errors.New(`set_agency requires params["agency"]`)
		}
		return func(ctx context.Context, ids []string) (int, error) {
			return s.store.UpdateRestaurantAgencies(ctx, ids, agency)
		}, nil
	default:
		return nil, fmt.Errorf("unknown action %q", req.Action)
	}
}

// runBulk applies the action in batches of bulkBatchSize with at most
// bulkMaxInFlight running at once. A failing batch marks its IDs failed and
// is reported, never fatal: the remaining batches still run.
func (s *Service) runBulk(ctx context.Context, apply bulkApply, req *BulkRequest) *BulkResult {
	res := &BulkResult{Requested: len(req.IDs)}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(bulkMaxInFlight)

	for start := 0; start < len(req.IDs); start += bulkBatchSize {
		batch := req.IDs[start:min(start+bulkBatchSize, len(req.IDs))]
		g.Go(func() error {
			n, err := apply(ctx, batch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed += len(batch)
				res.Errors = append(res.Errors,
					fmt.Sprintf("batch %s..%s: %v", batch[0], batch[len(batch)-1], err))
				metrics.BulkOperation(req.Action, "failed", len(batch))
				return nil
			}
			res.Succeeded += n
			metrics.BulkOperation(req.Action, "succeeded", n)
			if n < len(batch) {
				// Rows the statement did not touch were already gone.
				res.Failed += len(batch) - n
				res.Errors = append(res.Errors,
					fmt.Sprintf("batch %s..%s: %d ids not found", batch[0], batch[len(batch)-1], len(batch)-n))
				metrics.BulkOperation(req.Action, "failed", len(batch)-n)
			}
			return nil
		})
	}
	g.Wait()

	// Batches land in completion order; sort so responses are stable.
	sort.Strings(res.Errors)
	return res
}

// BulkRestaurants handles POST /api/admin/restaurants/bulk. The per-admin
// rate limit sits in the route table.
func (s *Service) BulkRestaurants(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", "ids is required")
		return
	}
	if len(req.IDs) > maxBulkIDs {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request",
			fmt.Sprintf("at most %d ids per call", maxBulkIDs))
		return
	}
	apply, err := s.bulkAction(&req)
	if err != nil {
		httpapi.RespondError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.Action == "delete" {
		// Moderators may clear queues; removing records outright is an
		// admin call.
		claims, ok := middleware.GetClaims(c)
		if !ok || !claims.Role.AtLeast(models.RoleAdmin) {
			httpapi.RespondError(c, http.StatusForbidden, "forbidden", "bulk delete requires admin")
			return
		}
	}

	res := s.runBulk(c.Request.Context(), apply, &req)

	s.audit(c, models.AuditBulk, "restaurant", "", auditDetail(gin.H{
		"action":    req.Action,
		"requested": res.Requested,
		"succeeded": res.Succeeded,
		"failed":    res.Failed,
	}))
	for _, e := range res.Errors {
		s.audit(c, models.AuditBulk, "restaurant", "", auditDetail(gin.H{
			"action": req.Action,
			"error":  e,
		}))
	}
	httpapi.RespondData(c, http.StatusOK, res)
}
