package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"rank-decay-tracker/internal/domain"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DocumentStore keeps every record in one JSON document on disk, a map from
// key to record. Writes go to a temp file that is fsynced and renamed over
// the document, so readers of the file only ever see a complete snapshot.
type DocumentStore struct {
	path   string
	locks  keyLocks
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	records map[string]domain.PlayerRecord

	// writeMu orders snapshot, persist and commit so the file never goes
	// backwards relative to memory.
	writeMu sync.Mutex
}

func OpenDocumentStore(path string, logger zerolog.Logger) (*DocumentStore, error) {
	s := &DocumentStore{
		path:    path,
		logger:  logger,
		now:     time.Now,
		records: make(map[string]domain.PlayerRecord),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info().Str("path", path).Msg("player document not found, starting empty")
		return s, nil
	case err != nil:
		return nil, storeErr("read document", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.records); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrStoreIO, path, err)
		}
	}
	logger.Info().Str("path", path).Int("players", len(s.records)).Msg("player document loaded")
	return s, nil
}

func (s *DocumentStore) GetAll(ctx context.Context) (map[string]domain.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.PlayerRecord, len(s.records))
	for k, rec := range s.records {
		out[k] = rec.Clone()
	}
	return out, nil
}

func (s *DocumentStore) Get(ctx context.Context, key string) (domain.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return domain.PlayerRecord{}, notFound(key)
	}
	return rec.Clone(), nil
}

func (s *DocumentStore) UpsertMerge(ctx context.Context, key string, patch domain.PlayerPatch) (domain.PlayerRecord, error) {
	return s.Update(ctx, key, Merge(patch))
}

func (s *DocumentStore) Update(ctx context.Context, key string, fn UpdateFunc) (domain.PlayerRecord, error) {
	unlock := s.locks.lock(key)
	defer unlock()

	var current *domain.PlayerRecord
	s.mu.RLock()
	if rec, ok := s.records[key]; ok {
		c := rec.Clone()
		current = &c
	}
	s.mu.RUnlock()

	next, err := fn(current)
	if err != nil {
		return domain.PlayerRecord{}, err
	}
	next = stamp(key, current, next, s.now())

	err = s.commit(func(snapshot map[string]domain.PlayerRecord) {
		snapshot[key] = next
	})
	if err != nil {
		return domain.PlayerRecord{}, err
	}
	return next.Clone(), nil
}

func (s *DocumentStore) Delete(ctx context.Context, key string) error {
	unlock := s.locks.lock(key)
	defer unlock()

	s.mu.RLock()
	_, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return notFound(key)
	}

	return s.commit(func(snapshot map[string]domain.PlayerRecord) {
		delete(snapshot, key)
	})
}

// commit applies change to a copy of the records, persists the copy and only
// then swaps it in.
func (s *DocumentStore) commit(change func(map[string]domain.PlayerRecord)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	snapshot := maps.Clone(s.records)
	s.mu.RUnlock()
	if snapshot == nil {
		snapshot = make(map[string]domain.PlayerRecord)
	}

	change(snapshot)

	if err := s.persist(snapshot); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("failed to write player document")
		return err
	}

	s.mu.Lock()
	s.records = snapshot
	s.mu.Unlock()
	return nil
}

func (s *DocumentStore) persist(records map[string]domain.PlayerRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return storeErr("encode document", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*.tmp")
	if err != nil {
		return storeErr("create temp document", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return storeErr("write temp document", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return storeErr("sync temp document", err)
	}
	if err := tmp.Close(); err != nil {
		return storeErr("close temp document", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return storeErr("replace document", err)
	}

	if d, err := os.Open(dir); err == nil {
		d.Sync()
		d.Close()
	}
	return nil
}

func (s *DocumentStore) Ping(ctx context.Context) error {
	if _, err := os.Stat(filepath.Dir(s.path)); err != nil {
		return storeErr("stat document dir", err)
	}
	return nil
}

func (s *DocumentStore) Close() error {
	return nil
}
