// Package sqlstore implements storage.Store over database/sql via sqlx.
// Queries stick to the dialect shared by PostgreSQL and SQLite (numbered
// $N placeholders, BIGINT unix timestamps, lower() LIKE matching), so
// production runs on Postgres while tests and local dev run on in-process
// SQLite.
package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // pure Go SQLite driver (no CGO)

	"github.com/levipshemish/jewgo-api/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on PostgreSQL or SQLite.
type Store struct {
	db     *sqlx.DB
	driver string
}

// New opens the database identified by driver ("postgres" or "sqlite") and
// dsn, then runs migrations.
func New(driver, dsn string) (*Store, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == "sqlite" {
		// A single connection keeps the pragma in force for every query
		// and sidesteps SQLITE_BUSY under concurrent writes.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// SetPool bounds the connection pool. SQLite stores ignore it: they run on
// a single connection.
func (s *Store) SetPool(maxOpen, maxIdle int) {
	if s.driver == "sqlite" {
		return
	}
	if maxOpen > 0 {
		s.db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		s.db.SetMaxIdleConns(maxIdle)
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// whereBuilder accumulates AND conditions with numbered placeholders.
// Each expr carries one %d verb per value.
type whereBuilder struct {
	conds []string
	args  []interface{}
}

func (w *whereBuilder) add(expr string, vals ...interface{}) {
	nums := make([]interface{}, len(vals))
	for i := range vals {
		nums[i] = len(w.args) + i + 1
	}
	w.args = append(w.args, vals...)
	w.conds = append(w.conds, fmt.Sprintf(expr, nums...))
}

// clause renders " WHERE ..." or an empty string when no conditions exist.
func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// next returns the placeholder number for the next manually appended arg.
func (w *whereBuilder) next() int {
	return len(w.args) + 1
}

// placeholders returns "$start, $start+1, ..." for n values. Used for
// building IN clauses.
func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

// idArgs converts ids to the []interface{} shape ExecContext wants.
func idArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// likePattern builds a case-insensitive substring pattern for lower() LIKE.
func likePattern(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}

// isUniqueViolation reports whether err came from a unique constraint.
// Both lib/pq and modernc/sqlite spell the constraint out in the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}

// count runs a COUNT(*) with the builder's WHERE clause.
func (s *Store) count(ctx context.Context, table string, w *whereBuilder) (int, error) {
	var total int
	query := "SELECT COUNT(*) FROM " + table + w.clause()
	if err := s.db.GetContext(ctx, &total, query, w.args...); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return total, nil
}

// pageSlice cuts one page out of in-memory results.
func pageSlice[T any](rows []T, page, limit int) []T {
	limit, offset := storage.Window(page, limit)
	if offset >= len(rows) {
		return nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}
