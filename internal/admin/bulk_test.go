package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

func TestRunBulkBatchesAndCollectsFailures(t *testing.T) {
	ids := make([]string, 230)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%03d", i)
	}

	var (
		mu       sync.Mutex
		sizes    []int
		inFlight int
		peak     int
	)
	apply := func(ctx context.Context, batch []string) (int, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		sizes = append(sizes, len(batch))
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()

		if batch[0] == "id-100" {
			return 0, errors.New("deadlock detected")
		}
		return len(batch), nil
	}

	res := (&Service{}).runBulk(context.Background(), apply, &BulkRequest{Action: "approve", IDs: ids})

	if res.Requested != 230 {
		t.Errorf("Requested = %d, want 230", res.Requested)
	}
	if res.Succeeded != 180 {
		t.Errorf("Succeeded = %d, want 180", res.Succeeded)
	}
	if res.Failed != 50 {
		t.Errorf("Failed = %d, want 50", res.Failed)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "deadlock detected") {
		t.Errorf("Errors = %v, want one entry naming the batch failure", res.Errors)
	}

	sort.Ints(sizes)
	want := []int{30, 50, 50, 50, 50}
	if len(sizes) != len(want) {
		t.Fatalf("batches = %v, want sizes %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("batches = %v, want sizes %v", sizes, want)
		}
	}
	if peak > bulkMaxInFlight {
		t.Errorf("peak concurrency = %d, want at most %d", peak, bulkMaxInFlight)
	}
}

func TestBulkRestaurantsOverHTTP(t *testing.T) {
	h := newAdminHarness(t)
	_, modTok := h.userWithRole(models.RoleModerator)
	_, adminTok := h.userWithRole(models.RoleAdmin)

	r1 := h.seedRestaurant("Bulk One", models.StatusPending)
	r2 := h.seedRestaurant("Bulk Two", models.StatusPending)
	r3 := h.seedRestaurant("Bulk Three", models.StatusPending)

	bulkBody := func(action string, ids []string, params map[string]string) string {
		t.Helper()
		b, err := json.Marshal(BulkRequest{Action: action, IDs: ids, Params: params})
		if err != nil {
			t.Fatalf("failed to marshal bulk request: %v", err)
		}
		return string(b)
	}

	t.Run("approve accounts for missing ids", func(t *testing.T) {
		body := bulkBody("approve", []string{r1.ID, r2.ID, r3.ID, "ghost-1", "ghost-2"}, nil)
		w := h.send(http.MethodPost, "/api/admin/restaurants/bulk", modTok, body)
		if w.Code != http.StatusOK {
			t.Fatalf("code = %d, body %s", w.Code, w.Body)
		}

		var res BulkResult
		h.dataInto(w, &res)
		if res.Requested != 5 || res.Succeeded != 3 || res.Failed != 2 {
			t.Fatalf("accounting = %+v, want 5/3/2", res)
		}
		if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "2 ids not found") {
			t.Fatalf("Errors = %v, want a missing-ids note", res.Errors)
		}

		for _, id := range []string{r1.ID, r2.ID, r3.ID} {
			got, err := h.store.GetRestaurant(context.Background(), id)
			if err != nil {
				t.Fatalf("failed to reload %s: %v", id, err)
			}
			if got.Status != models.StatusApproved {
				t.Fatalf("status of %s = %q, want approved", id, got.Status)
			}
		}
	})

	t.Run("set_agency rewrites certification", func(t *testing.T) {
		body := bulkBody("set_agency", []string{r1.ID, r2.ID}, map[string]string{"agency": "Star-K"})
		w := h.send(http.MethodPost, "/api/admin/restaurants/bulk", modTok, body)
		if w.Code != http.StatusOK {
			t.Fatalf("code = %d, body %s", w.Code, w.Body)
		}

		var res BulkResult
		h.dataInto(w, &res)
		if res.Succeeded != 2 || res.Failed != 0 {
			t.Fatalf("accounting = %+v, want 2/0", res)
		}
		got, err := h.store.GetRestaurant(context.Background(), r1.ID)
		if err != nil {
			t.Fatalf("failed to reload: %v", err)
		}
		if got.Agency != "Star-K" {
			t.Fatalf("agency = %q, want Star-K", got.Agency)
		}
	})

	t.Run("bad requests are rejected", func(t *testing.T) {
		tooMany := make([]string, maxBulkIDs+1)
		for i := range tooMany {
			tooMany[i] = "x"
		}
		cases := map[string]string{
			"unknown action":     bulkBody("publish", []string{r1.ID}, nil),
			"empty ids":          bulkBody("approve", nil, nil),
			"too many ids":       bulkBody("approve", tooMany, nil),
			"set_agency no args": bulkBody("set_agency", []string{r1.ID}, nil),
		}
		for name, body := range cases {
			t.Run(name, func(t *testing.T) {
				w := h.send(http.MethodPost, "/api/admin/restaurants/bulk", modTok, body)
				if w.Code != http.StatusBadRequest {
					t.Fatalf("code = %d, want 400 (body %s)", w.Code, w.Body)
				}
			})
		}
	})

	t.Run("bulk delete needs admin", func(t *testing.T) {
		body := bulkBody("delete", []string{r3.ID}, nil)
		w := h.send(http.MethodPost, "/api/admin/restaurants/bulk", modTok, body)
		if w.Code != http.StatusForbidden {
			t.Fatalf("moderator delete code = %d, want 403", w.Code)
		}
		if _, err := h.store.GetRestaurant(context.Background(), r3.ID); err != nil {
			t.Fatalf("record must survive the rejected call: %v", err)
		}

		w = h.send(http.MethodPost, "/api/admin/restaurants/bulk", adminTok, body)
		if w.Code != http.StatusOK {
			t.Fatalf("admin delete code = %d, body %s", w.Code, w.Body)
		}
		var res BulkResult
		h.dataInto(w, &res)
		if res.Succeeded != 1 {
			t.Fatalf("accounting = %+v, want one delete", res)
		}
		if _, err := h.store.GetRestaurant(context.Background(), r3.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("bulk calls land in the audit trail", func(t *testing.T) {
		w := h.get("/api/admin/audit?action=bulk", modTok)
		ld := h.listOf(w)
		// Three successful calls plus the failure note from the first.
		if ld.Total < 4 {
			t.Fatalf("audit total = %d, want at least 4", ld.Total)
		}
		var entries []models.AuditEntry
		if err := json.Unmarshal(ld.Items, &entries); err != nil {
			t.Fatalf("failed to decode entries: %v", err)
		}
		var failureNote bool
		for _, e := range entries {
			if strings.Contains(e.Detail, "ids not found") {
				failureNote = true
			}
		}
		if !failureNote {
			t.Fatal("no per-failure audit entry recorded")
		}
	})
}
