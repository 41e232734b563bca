package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"rank-decay-tracker/internal/config"
	"rank-decay-tracker/internal/constants"
	"rank-decay-tracker/internal/domain"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisStore keeps one JSON string per player plus a set of known keys.
// Updates use WATCH/MULTI, so they stay atomic across processes sharing the
// same Redis; the in-process key lock only cuts down on aborted transactions.
type RedisStore struct {
	client *redis.Client
	prefix string
	locks  keyLocks
	logger zerolog.Logger
	now    func() time.Time
}

func NewRedisStore(cfg *config.Config, logger zerolog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  constants.DatabaseTimeout,
		ReadTimeout:  constants.DatabaseTimeout,
		WriteTimeout: constants.DatabaseTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	logger.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("connected to redis")
	return NewRedisStoreWithClient(client, "decay", logger), nil
}

func NewRedisStoreWithClient(client *redis.Client, prefix string, logger zerolog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: logger,
		now:    time.Now,
	}
}

func (s *RedisStore) recordKey(key string) string {
	return fmt.Sprintf("%s:player:%s", s.prefix, key)
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":players"
}

func (s *RedisStore) GetAll(ctx context.Context) (map[string]domain.PlayerRecord, error) {
	keys, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, storeErr("list players", err)
	}
	out := make(map[string]domain.PlayerRecord, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	recordKeys := make([]string, len(keys))
	for i, k := range keys {
		recordKeys[i] = s.recordKey(k)
	}
	vals, err := s.client.MGet(ctx, recordKeys...).Result()
	if err != nil {
		return nil, storeErr("load players", err)
	}

	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// indexed but deleted between SMEMBERS and MGET
			continue
		}
		var rec domain.PlayerRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, storeErr("decode player "+keys[i], err)
		}
		out[keys[i]] = rec
	}
	return out, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (domain.PlayerRecord, error) {
	raw, err := s.client.Get(ctx, s.recordKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PlayerRecord{}, notFound(key)
	}
	if err != nil {
		return domain.PlayerRecord{}, storeErr("get player", err)
	}
	var rec domain.PlayerRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.PlayerRecord{}, storeErr("decode player "+key, err)
	}
	return rec, nil
}

func (s *RedisStore) UpsertMerge(ctx context.Context, key string, patch domain.PlayerPatch) (domain.PlayerRecord, error) {
	return s.Update(ctx, key, Merge(patch))
}

func (s *RedisStore) Update(ctx context.Context, key string, fn UpdateFunc) (domain.PlayerRecord, error) {
	unlock := s.locks.lock(key)
	defer unlock()

	rk := s.recordKey(key)
	var (
		next  domain.PlayerRecord
		fnErr error
	)

	txf := func(tx *redis.Tx) error {
		var current *domain.PlayerRecord
		raw, err := tx.Get(ctx, rk).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var rec domain.PlayerRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return err
			}
			current = &rec
		}

		rec, err := fn(current)
		if err != nil {
			fnErr = err
			return err
		}
		rec = stamp(key, current, rec, s.now())

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rk, data, 0)
			pipe.SAdd(ctx, s.indexKey(), key)
			return nil
		})
		if err == nil {
			next = rec
		}
		return err
	}

	for attempt := 0; attempt < constants.RedisTxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, rk)
		if err == nil {
			return next, nil
		}
		if fnErr != nil {
			return domain.PlayerRecord{}, fnErr
		}
		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Debug().Str("key", key).Int("attempt", attempt).Msg("player record changed during update, retrying")
			continue
		}
		return domain.PlayerRecord{}, storeErr("update player", err)
	}
	return domain.PlayerRecord{}, storeErr("update player", fmt.Errorf("too many concurrent writers for %q", key))
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	unlock := s.locks.lock(key)
	defer unlock()

	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.recordKey(key))
		pipe.SRem(ctx, s.indexKey(), key)
		return nil
	})
	if err != nil {
		return storeErr("delete player", err)
	}
	if del.Val() == 0 {
		return notFound(key)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return storeErr("ping", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
