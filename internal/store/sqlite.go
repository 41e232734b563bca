package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"rank-decay-tracker/internal/db"
	"rank-decay-tracker/internal/domain"
	"time"

	"github.com/rs/zerolog"
)

// SQLiteStore keeps one row per player with the record as a JSON document.
// Tier, decay and last-checked columns are denormalized for ad-hoc queries.
type SQLiteStore struct {
	db      *sql.DB
	queries *db.Queries
	locks   keyLocks
	logger  zerolog.Logger
	now     func() time.Time
}

func NewSQLiteStore(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:      sqlDB,
		queries: queries,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *SQLiteStore) GetAll(ctx context.Context) (map[string]domain.PlayerRecord, error) {
	rows, err := s.queries.ListPlayers(ctx)
	if err != nil {
		return nil, storeErr("list players", err)
	}

	out := make(map[string]domain.PlayerRecord, len(rows))
	for _, row := range rows {
		rec, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		out[row.Key] = rec
	}
	return out, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (domain.PlayerRecord, error) {
	row, err := s.queries.GetPlayer(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PlayerRecord{}, notFound(key)
	}
	if err != nil {
		return domain.PlayerRecord{}, storeErr("get player", err)
	}
	return decodeRow(row)
}

func (s *SQLiteStore) UpsertMerge(ctx context.Context, key string, patch domain.PlayerPatch) (domain.PlayerRecord, error) {
	return s.Update(ctx, key, Merge(patch))
}

func (s *SQLiteStore) Update(ctx context.Context, key string, fn UpdateFunc) (domain.PlayerRecord, error) {
	unlock := s.locks.lock(key)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.PlayerRecord{}, storeErr("begin transaction", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	var current *domain.PlayerRecord
	row, err := qtx.GetPlayer(ctx, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return domain.PlayerRecord{}, storeErr("get player", err)
	default:
		rec, err := decodeRow(row)
		if err != nil {
			return domain.PlayerRecord{}, err
		}
		current = &rec
	}

	next, err := fn(current)
	if err != nil {
		return domain.PlayerRecord{}, err
	}
	next = stamp(key, current, next, s.now())

	data, err := json.Marshal(next)
	if err != nil {
		return domain.PlayerRecord{}, storeErr("encode player", err)
	}

	err = qtx.UpsertPlayer(ctx, db.UpsertPlayerParams{
		Key:           key,
		Data:          string(data),
		Tier:          next.Tier().String(),
		DecayDaysLeft: int64(next.DecayDaysLeft),
		LastCheckedAt: next.LastCheckedAt,
		CreatedAt:     next.CreatedAt,
		UpdatedAt:     next.UpdatedAt,
	})
	if err != nil {
		return domain.PlayerRecord{}, storeErr("upsert player", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.PlayerRecord{}, storeErr("commit", err)
	}

	s.logger.Debug().Str("key", key).Bool("created", current == nil).Msg("player record written")
	return next, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	unlock := s.locks.lock(key)
	defer unlock()

	n, err := s.queries.DeletePlayer(ctx, key)
	if err != nil {
		return storeErr("delete player", err)
	}
	if n == 0 {
		return notFound(key)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storeErr("ping", err)
	}
	return nil
}

// Close is a no-op; the *sql.DB is shared and closed by the app lifecycle.
func (s *SQLiteStore) Close() error {
	return nil
}

func decodeRow(row db.Player) (domain.PlayerRecord, error) {
	var rec domain.PlayerRecord
	if err := json.Unmarshal([]byte(row.Data), &rec); err != nil {
		return domain.PlayerRecord{}, storeErr("decode player "+row.Key, err)
	}
	return rec, nil
}
