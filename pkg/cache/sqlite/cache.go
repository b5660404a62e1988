// Package sqlite implements the inference response cache. Entries are
// keyed by (case, operation) and carry their own validity window so
// fallback results expire sooner than model results.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/riskline-ai/riskline/pkg/models"
)

// Cache is a time-bounded store of inference results backed by SQLite.
type Cache struct {
	db          *sql.DB
	modelTTL    time.Duration
	fallbackTTL time.Duration
	hits        atomic.Int64
	misses      atomic.Int64
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS response_cache (
	case_id TEXT NOT NULL,
	operation TEXT NOT NULL,
	result BLOB NOT NULL,
	origin TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	ttl_seconds INTEGER NOT NULL,
	PRIMARY KEY (case_id, operation)
);
`

// New creates a Cache with per-origin validity windows.
func New(dbPath string, modelTTL, fallbackTTL time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Cache{db: db, modelTTL: modelTTL, fallbackTTL: fallbackTTL}, nil
}

// Get retrieves a cached result. Expired entries are treated as misses
// and evicted lazily. Served hits are tagged Origin=cache.
func (c *Cache) Get(caseID string, kind models.OperationKind) (*models.InferenceResult, bool) {
	var data []byte
	var createdAt time.Time
	var ttlSeconds int64

	err := c.db.QueryRow(
		`SELECT result, created_at, ttl_seconds FROM response_cache WHERE case_id = ? AND operation = ?`,
		caseID, string(kind),
	).Scan(&data, &createdAt, &ttlSeconds)

	if err != nil {
		c.misses.Add(1)
		return nil, false
	}

	if time.Since(createdAt) >= time.Duration(ttlSeconds)*time.Second {
		_, _ = c.db.Exec(
			`DELETE FROM response_cache WHERE case_id = ? AND operation = ?`,
			caseID, string(kind),
		)
		c.misses.Add(1)
		return nil, false
	}

	var result models.InferenceResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	result.Origin = models.OriginCache
	return &result, true
}

// Put stores a result. The validity window is chosen from the result's
// origin: fallback entries use the shorter window so a fresh model
// attempt happens once budget or service recover.
func (c *Cache) Put(result *models.InferenceResult) error {
	ttl := c.modelTTL
	if result.Origin == models.OriginFallback {
		ttl = c.fallbackTTL
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}

	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO response_cache (case_id, operation, result, origin, created_at, ttl_seconds)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		result.CaseID, string(result.Kind), data, string(result.Origin), time.Now().UTC(), int64(ttl.Seconds()),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Stats returns cache performance metrics.
func (c *Cache) Stats() (models.CacheStats, error) {
	var count int64
	err := c.db.QueryRow(`SELECT COUNT(*) FROM response_cache`).Scan(&count)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return models.CacheStats{
		Entries: count,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}, nil
}

// Clear removes cache entries. If expiredOnly is true, only expired entries are removed.
func (c *Cache) Clear(expiredOnly bool) error {
	var query string
	if expiredOnly {
		query = `DELETE FROM response_cache WHERE (julianday('now') - julianday(created_at)) * 86400 > ttl_seconds`
	} else {
		query = `DELETE FROM response_cache`
	}
	_, err := c.db.Exec(query)
	if err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
