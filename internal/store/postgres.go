package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/bantaypondo/news/internal/logger"
)

// Postgres implements Store on a shared database, so multiple engine
// instances see the same rate-limit windows and cached results.
type Postgres struct {
	db       *sql.DB
	capacity int
}

// NewPostgres connects, verifies the connection and creates the schema.
func NewPostgres(connectionString string, capacity int) (*Postgres, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Postgres{db: db, capacity: capacity}
	if err := p.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	logger.Info("postgres store connected")
	return p, nil
}

func (p *Postgres) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS result_cache (
		key VARCHAR(64) PRIMARY KEY,
		value BYTEA NOT NULL,
		stored_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_result_cache_stored_at ON result_cache(stored_at);

	CREATE TABLE IF NOT EXISTS rate_counters (
		key VARCHAR(128) PRIMARY KEY,
		count BIGINT NOT NULL DEFAULT 0,
		window_start TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`
	_, err := p.db.Exec(schema)
	return err
}

func (p *Postgres) Get(ctx context.Context, key string) (Entry, bool, error) {
	var e Entry
	query := `SELECT value, stored_at, expires_at FROM result_cache WHERE key = $1`
	err := p.db.QueryRowContext(ctx, query, key).Scan(&e.Value, &e.StoredAt, &e.ExpiresAt)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get cache entry: %w", err)
	}
	return e, true, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `
		INSERT INTO result_cache (key, value, stored_at, expires_at)
		VALUES ($1, $2, NOW(), NOW() + $3 * INTERVAL '1 millisecond')
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			stored_at = NOW(),
			expires_at = EXCLUDED.expires_at
	`
	if _, err := p.db.ExecContext(ctx, query, key, value, ttl.Milliseconds()); err != nil {
		return fmt.Errorf("set cache entry: %w", err)
	}
	if p.capacity > 0 {
		// Keep only the newest rows; the oldest go first, same as the
		// in-memory store.
		trim := `
			DELETE FROM result_cache WHERE key IN (
				SELECT key FROM result_cache
				ORDER BY stored_at DESC OFFSET $1
			)
		`
		if _, err := p.db.ExecContext(ctx, trim, p.capacity); err != nil {
			logger.Warn("cache trim failed", "error", err)
		}
	}
	return nil
}

func (p *Postgres) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	query := `
		INSERT INTO rate_counters (key, count, window_start)
		VALUES ($1, 1, NOW())
		ON CONFLICT (key) DO UPDATE SET
			count = CASE
				WHEN rate_counters.window_start <= NOW() - $2 * INTERVAL '1 millisecond' THEN 1
				ELSE rate_counters.count + 1
			END,
			window_start = CASE
				WHEN rate_counters.window_start <= NOW() - $2 * INTERVAL '1 millisecond' THEN NOW()
				ELSE rate_counters.window_start
			END
		RETURNING count, window_start
	`
	var count int64
	var windowStart time.Time
	err := p.db.QueryRowContext(ctx, query, key, window.Milliseconds()).Scan(&count, &windowStart)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("increment counter: %w", err)
	}
	return count, windowStart.Add(window), nil
}

// Close closes the database connection.
func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
