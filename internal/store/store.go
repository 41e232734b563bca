// Package store persists PlayerRecords keyed by canonical identity.
//
// Every backend serializes read-modify-write per key and never per store, so
// refreshes of different players do not wait on each other. Backends only
// expose fully written state: a failed write leaves the previous record.
package store

import (
	"context"
	"fmt"
	"rank-decay-tracker/internal/config"
	"rank-decay-tracker/internal/domain"
	"time"

	"github.com/rs/zerolog"
)

// UpdateFunc computes the new record from the current one. current is nil
// when the key does not exist yet. Backends with optimistic transactions may
// call it more than once; only the result of the last call is committed.
type UpdateFunc func(current *domain.PlayerRecord) (domain.PlayerRecord, error)

type Store interface {
	GetAll(ctx context.Context) (map[string]domain.PlayerRecord, error)
	Get(ctx context.Context, key string) (domain.PlayerRecord, error)
	UpsertMerge(ctx context.Context, key string, patch domain.PlayerPatch) (domain.PlayerRecord, error)
	Update(ctx context.Context, key string, fn UpdateFunc) (domain.PlayerRecord, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Merge is the UpdateFunc behind UpsertMerge.
func Merge(patch domain.PlayerPatch) UpdateFunc {
	return func(current *domain.PlayerRecord) (domain.PlayerRecord, error) {
		var base domain.PlayerRecord
		if current != nil {
			base = *current
		}
		return patch.Apply(base), nil
	}
}

// stamp pins the fields no update may change and sets the timestamps.
func stamp(key string, current *domain.PlayerRecord, next domain.PlayerRecord, now time.Time) domain.PlayerRecord {
	next.Key = key
	if current != nil {
		next.CreatedAt = current.CreatedAt
		if current.Identity != (domain.Identity{}) {
			next.Identity = current.Identity
		}
		if next.LastCheckedAt.Before(current.LastCheckedAt) {
			next.LastCheckedAt = current.LastCheckedAt
		}
	}
	if next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}
	next.UpdatedAt = now
	return next
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreIO, op, err)
}

func notFound(key string) error {
	return fmt.Errorf("%w: player %q", domain.ErrNotFound, key)
}

// Open builds the backend selected by STORE_BACKEND.
func Open(cfg *config.Config, sqlite *SQLiteStore, logger zerolog.Logger) (Store, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		return sqlite, nil
	case config.BackendDocument:
		return OpenDocumentStore(cfg.DocumentPath, logger)
	case config.BackendRedis:
		return NewRedisStore(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}
