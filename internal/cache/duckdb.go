package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb"
)

const DatabaseFileName = "reports.db"

// CacheClient handles DuckDB-based caching of GA4 report responses
type CacheClient struct {
	db        *sql.DB
	cachePath string
	now       func() time.Time
}

// Stats holds cache performance metrics
type Stats struct {
	TotalHits    int        `json:"total_hits"`
	TotalMisses  int        `json:"total_misses"`
	HitRate      float64    `json:"hit_rate"`
	EntriesCount int        `json:"entries_count"`
	ExpiredCount int        `json:"expired_count"`
	LastCleanup  *time.Time `json:"last_cleanup"`
	Path         string     `json:"path"`
}

// NewCacheClient opens (or creates) the cache database inside dir
func NewCacheClient(dir string) (*CacheClient, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cachePath := filepath.Join(dir, DatabaseFileName)

	db, err := sql.Open("duckdb", cachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	client := &CacheClient{
		db:        db,
		cachePath: cachePath,
		now:       time.Now,
	}

	if err := client.initializeTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache tables: %w", err)
	}

	return client, nil
}

// Path returns the database file location
func (c *CacheClient) Path() string {
	return c.cachePath
}

// Close closes the database connection
func (c *CacheClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *CacheClient) initializeTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS query_cache (
			query_hash VARCHAR PRIMARY KEY, -- hash of property + request body
			property_id VARCHAR NOT NULL,
			result_data TEXT NOT NULL,      -- JSON-encoded report response
			row_count INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			last_accessed TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS cache_stats (
			id INTEGER PRIMARY KEY,
			total_hits INTEGER DEFAULT 0,
			total_misses INTEGER DEFAULT 0,
			last_cleanup TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := c.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	_, err := c.db.Exec(`INSERT OR IGNORE INTO cache_stats (id, total_hits, total_misses) VALUES (1, 0, 0)`)
	return err
}

// CacheQuery stores a report response until now+ttl
func (c *CacheClient) CacheQuery(ctx context.Context, propertyID, queryHash string, resultData interface{}, rowCount int, ttl time.Duration) error {
	jsonData, err := json.Marshal(resultData)
	if err != nil {
		return fmt.Errorf("failed to marshal result data: %w", err)
	}

	now := c.now()
	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO query_cache
		(query_hash, property_id, result_data, row_count, created_at, expires_at, last_accessed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, queryHash, propertyID, string(jsonData), rowCount, now, now.Add(ttl), now)

	return err
}

// GetCachedQuery loads a cached report response if present and fresh
func (c *CacheClient) GetCachedQuery(ctx context.Context, queryHash string, resultData interface{}) (bool, error) {
	var data string
	var expiresAt time.Time

	err := c.db.QueryRowContext(ctx, `
		SELECT result_data, expires_at
		FROM query_cache
		WHERE query_hash = ?
	`, queryHash).Scan(&data, &expiresAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.incrementMisses(ctx)
			return false, nil
		}
		return false, fmt.Errorf("failed to query cache: %w", err)
	}

	now := c.now()
	if now.After(expiresAt) {
		c.incrementMisses(ctx)
		c.db.ExecContext(ctx, `DELETE FROM query_cache WHERE query_hash = ?`, queryHash)
		return false, nil
	}

	c.db.ExecContext(ctx, `UPDATE query_cache SET last_accessed = ? WHERE query_hash = ?`, now, queryHash)

	if err := json.Unmarshal([]byte(data), resultData); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached data: %w", err)
	}

	c.incrementHits(ctx)
	return true, nil
}

// GetCacheStats returns cache performance statistics
func (c *CacheClient) GetCacheStats(ctx context.Context) (*Stats, error) {
	stats := Stats{Path: c.cachePath}
	var lastCleanup sql.NullTime

	err := c.db.QueryRowContext(ctx, `
		SELECT total_hits, total_misses, last_cleanup
		FROM cache_stats
		WHERE id = 1
	`).Scan(&stats.TotalHits, &stats.TotalMisses, &lastCleanup)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache stats: %w", err)
	}
	if lastCleanup.Valid {
		stats.LastCleanup = &lastCleanup.Time
	}

	total := stats.TotalHits + stats.TotalMisses
	if total > 0 {
		stats.HitRate = float64(stats.TotalHits) / float64(total) * 100
	}

	err = c.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE expires_at < ?)
		FROM query_cache
	`, c.now()).Scan(&stats.EntriesCount, &stats.ExpiredCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count cache entries: %w", err)
	}

	return &stats, nil
}

// CleanupExpiredEntries removes expired entries, or everything when all is set
func (c *CacheClient) CleanupExpiredEntries(ctx context.Context, all bool) (int, error) {
	now := c.now()

	var result sql.Result
	var err error
	if all {
		result, err = c.db.ExecContext(ctx, `DELETE FROM query_cache`)
	} else {
		result, err = c.db.ExecContext(ctx, `DELETE FROM query_cache WHERE expires_at < ?`, now)
	}
	if err != nil {
		return 0, err
	}

	deleted, _ := result.RowsAffected()

	_, err = c.db.ExecContext(ctx, `UPDATE cache_stats SET last_cleanup = ? WHERE id = 1`, now)

	return int(deleted), err
}

func (c *CacheClient) incrementHits(ctx context.Context) {
	c.db.ExecContext(ctx, `UPDATE cache_stats SET total_hits = total_hits + 1 WHERE id = 1`)
}

func (c *CacheClient) incrementMisses(ctx context.Context) {
	c.db.ExecContext(ctx, `UPDATE cache_stats SET total_misses = total_misses + 1 WHERE id = 1`)
}
