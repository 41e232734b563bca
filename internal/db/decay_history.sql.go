package db

import (
	"context"
	"time"
)

const insertDecayHistory = `
INSERT INTO decay_history (id, player_key, tier, previous, updated, new_matches, source, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertDecayHistoryParams struct {
	ID         string
	PlayerKey  string
	Tier       string
	Previous   int64
	Updated    int64
	NewMatches int64
	Source     string
	RecordedAt time.Time
}

func (q *Queries) InsertDecayHistory(ctx context.Context, arg InsertDecayHistoryParams) error {
	_, err := q.db.ExecContext(ctx, insertDecayHistory,
		arg.ID,
		arg.PlayerKey,
		arg.Tier,
		arg.Previous,
		arg.Updated,
		arg.NewMatches,
		arg.Source,
		arg.RecordedAt,
	)
	return err
}

const getDecayHistoryByPlayer = `
SELECT id, player_key, tier, previous, updated, new_matches, source, recorded_at
FROM decay_history
WHERE player_key = ?
ORDER BY recorded_at DESC, id
LIMIT ?
`

type GetDecayHistoryByPlayerParams struct {
	PlayerKey string
	Limit     int64
}

func (q *Queries) GetDecayHistoryByPlayer(ctx context.Context, arg GetDecayHistoryByPlayerParams) ([]DecayHistory, error) {
	rows, err := q.db.QueryContext(ctx, getDecayHistoryByPlayer, arg.PlayerKey, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DecayHistory
	for rows.Next() {
		var i DecayHistory
		if err := rows.Scan(
			&i.ID,
			&i.PlayerKey,
			&i.Tier,
			&i.Previous,
			&i.Updated,
			&i.NewMatches,
			&i.Source,
			&i.RecordedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteDecayHistoryByPlayer = `
DELETE FROM decay_history
WHERE player_key = ?
`

func (q *Queries) DeleteDecayHistoryByPlayer(ctx context.Context, playerKey string) error {
	_, err := q.db.ExecContext(ctx, deleteDecayHistoryByPlayer, playerKey)
	return err
}
