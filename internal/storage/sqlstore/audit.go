package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/levipshemish/jewgo-api/internal/models"
	"github.com/levipshemish/jewgo-api/internal/storage"
)

const auditCols = "id, admin_id, admin_email, action, entity_type, entity_id, detail, created_at"

// AppendAudit records an admin action. The trail is append-only; nothing
// updates or deletes rows.
func (s *Store) AppendAudit(ctx context.Context, e *models.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO audit_log (id, admin_id, admin_email, action, entity_type, entity_id, detail, created_at)
		VALUES (:id, :admin_id, :admin_email, :action, :entity_type, :entity_id, :detail, :created_at)
	`, e)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// ListAudit returns audit entries matching the filter plus the total count,
// newest first.
func (s *Store) ListAudit(ctx context.Context, f storage.AuditFilter) ([]*models.AuditEntry, int, error) {
	w := &whereBuilder{}
	if f.AdminID != "" {
		w.add("admin_id = $%d", f.AdminID)
	}
	if f.EntityType != "" {
		w.add("entity_type = $%d", f.EntityType)
	}
	if f.Action != "" {
		w.add("action = $%d", f.Action)
	}

	total, err := s.count(ctx, "audit_log", w)
	if err != nil {
		return nil, 0, err
	}

	limit, offset := storage.Window(f.Page, f.Limit)
	query := "SELECT " + auditCols + " FROM audit_log" + w.clause() +
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", w.next(), w.next()+1)
	args := append(w.args, limit, offset)

	var rows []*models.AuditEntry
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return rows, total, nil
}

// CountByStatus aggregates per-status row counts for the admin dashboard.
func (s *Store) CountByStatus(ctx context.Context) (*storage.Stats, error) {
	stats := &storage.Stats{
		Restaurants: make(map[string]int64),
		Reviews:     make(map[string]int64),
		Synagogues:  make(map[string]int64),
		Mikvahs:     make(map[string]int64),
		Listings:    make(map[string]int64),
	}

	tables := []struct {
		name string
		dest map[string]int64
	}{
		{"restaurants", stats.Restaurants},
		{"reviews", stats.Reviews},
		{"synagogues", stats.Synagogues},
		{"mikvahs", stats.Mikvahs},
		{"listings", stats.Listings},
	}

	for _, t := range tables {
		var counts []struct {
			Status string `db:"status"`
			N      int64  `db:"n"`
		}
		query := fmt.Sprintf("SELECT status, COUNT(*) AS n FROM %s GROUP BY status", t.name)
		if err := s.db.SelectContext(ctx, &counts, query); err != nil {
			return nil, fmt.Errorf("failed to count %s by status: %w", t.name, err)
		}
		for _, c := range counts {
			t.dest[c.Status] = c.N
		}
	}

	if err := s.db.GetContext(ctx, &stats.Users, "SELECT COUNT(*) FROM users"); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	return stats, nil
}
