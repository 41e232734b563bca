package repository

import (
	"context"
	"fmt"
	"rank-decay-tracker/internal/db"
	"rank-decay-tracker/internal/domain"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type DecayHistoryRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewDecayHistoryRepository(queries *db.Queries, logger zerolog.Logger) *DecayHistoryRepository {
	return &DecayHistoryRepository{
		queries: queries,
		logger:  logger,
	}
}

func (r *DecayHistoryRepository) Record(ctx context.Context, change domain.DecayChange) error {
	id := change.ID
	if id == "" {
		var err error
		id, err = gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
	}
	if change.RecordedAt.IsZero() {
		change.RecordedAt = time.Now()
	}

	err := r.queries.InsertDecayHistory(ctx, db.InsertDecayHistoryParams{
		ID:         id,
		PlayerKey:  change.Key,
		Tier:       change.Tier.String(),
		Previous:   int64(change.Previous),
		Updated:    int64(change.Updated),
		NewMatches: int64(change.NewMatches),
		Source:     change.Source,
		RecordedAt: change.RecordedAt,
	})
	if err != nil {
		r.logger.Error().Err(err).Str("key", change.Key).Msg("failed to insert decay history")
		return fmt.Errorf("failed to insert decay history: %w", err)
	}

	r.logger.Debug().
		Str("key", change.Key).
		Str("source", change.Source).
		Int("previous", change.Previous).
		Int("updated", change.Updated).
		Msg("decay change recorded")
	return nil
}

func (r *DecayHistoryRepository) GetByKey(ctx context.Context, key string, limit int) ([]domain.DecayChange, error) {
	records, err := r.queries.GetDecayHistoryByPlayer(ctx, db.GetDecayHistoryByPlayerParams{
		PlayerKey: key,
		Limit:     int64(limit),
	})
	if err != nil {
		return nil, err
	}

	result := make([]domain.DecayChange, len(records))
	for i, rec := range records {
		result[i] = domain.DecayChange{
			ID:         rec.ID,
			Key:        rec.PlayerKey,
			Tier:       domain.ParseTier(rec.Tier),
			Previous:   int(rec.Previous),
			Updated:    int(rec.Updated),
			NewMatches: int(rec.NewMatches),
			Source:     rec.Source,
			RecordedAt: rec.RecordedAt,
		}
	}
	return result, nil
}

func (r *DecayHistoryRepository) DeleteByKey(ctx context.Context, key string) error {
	return r.queries.DeleteDecayHistoryByPlayer(ctx, key)
}
