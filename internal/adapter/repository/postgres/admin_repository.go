package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/V4T54L/waste-watch/internal/adapter/metrics"
)

const schema = `CREATE TABLE IF NOT EXISTS admin_allowlist (
	email      TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type cacheEntry struct {
	isAdmin   bool
	expiresAt time.Time
}

// AdminRepository implements the domain.AdminRepository interface using PostgreSQL
// as the source of truth and an in-memory, time-based cache.
type AdminRepository struct {
	db       *sql.DB
	logger   *slog.Logger
	cache    map[string]cacheEntry
	mu       sync.RWMutex
	cacheTTL time.Duration
	metrics  *metrics.DashboardMetrics
	now      func() time.Time
}

// NewAdminRepository creates a new instance of the PostgreSQL admin allowlist repository.
func NewAdminRepository(db *sql.DB, logger *slog.Logger, cacheTTL time.Duration, m *metrics.DashboardMetrics) *AdminRepository {
	return &AdminRepository{
		db:       db,
		logger:   logger,
		cache:    make(map[string]cacheEntry),
		cacheTTL: cacheTTL,
		metrics:  m,
		now:      time.Now,
	}
}

// EnsureSchema creates the allowlist table if it does not exist.
func (r *AdminRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create admin_allowlist: %w", err)
	}
	return nil
}

// IsAdmin checks the allowlist for email. It first checks a local cache and falls
// back to the database if the email is not cached or the entry has expired.
func (r *AdminRepository) IsAdmin(ctx context.Context, email string) (bool, error) {
	key := strings.ToLower(email)

	r.mu.RLock()
	entry, found := r.cache[key]
	r.mu.RUnlock()

	if found && r.now().Before(entry.expiresAt) {
		if r.metrics != nil {
			r.metrics.AdminCacheHits.Inc()
		}
		return entry.isAdmin, nil
	}

	if r.metrics != nil {
		r.metrics.AdminCacheMisses.Inc()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have filled the entry while we waited.
	entry, found = r.cache[key]
	if found && r.now().Before(entry.expiresAt) {
		return entry.isAdmin, nil
	}

	var isAdmin bool
	query := `SELECT EXISTS(SELECT 1 FROM admin_allowlist WHERE lower(email) = $1)`
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&isAdmin); err != nil {
		r.logger.Error("failed to query admin allowlist", "error", err)
		// Errors are not cached; the next check goes back to the database.
		return false, fmt.Errorf("query admin allowlist: %w", err)
	}

	r.cache[key] = cacheEntry{
		isAdmin:   isAdmin,
		expiresAt: r.now().Add(r.cacheTTL),
	}
	return isAdmin, nil
}

// Add puts email on the allowlist and drops any cached answer for it.
func (r *AdminRepository) Add(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admin_allowlist (email) VALUES ($1) ON CONFLICT (email) DO NOTHING`, email)
	if err != nil {
		return fmt.Errorf("add admin %s: %w", email, err)
	}

	r.mu.Lock()
	delete(r.cache, strings.ToLower(email))
	r.mu.Unlock()
	return nil
}
