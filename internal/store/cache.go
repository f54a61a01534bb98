package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ContestCacheRepository handles persistence for cached contest maps.
// It is a flat key-value table shared by both platforms; keys are namespaced
// by platform prefix ("cf:150", "atc:abc150") and values are serialized JSON
// index->title objects. Entries never expire and are never invalidated.
type ContestCacheRepository struct {
	db *sql.DB
}

func NewContestCacheRepository(db *sql.DB) *ContestCacheRepository {
	return &ContestCacheRepository{db: db}
}

// Get returns the stored value for a cache key, or ErrNotFound.
func (r *ContestCacheRepository) Get(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM contest_cache WHERE key = $1`
	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Put stores a value under a cache key as a single write. Concurrent writers
// racing on the same key resolve last-write-wins; content for a given key is
// deterministic given stable upstream data, so a redundant write is harmless.
func (r *ContestCacheRepository) Put(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO contest_cache (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, query, key, value, time.Now())
	return err
}
