package db

import (
	"context"
	"time"
)

const getPlayer = `
SELECT key, data, tier, decay_days_left, last_checked_at, created_at, updated_at
FROM players
WHERE key = ?
`

func (q *Queries) GetPlayer(ctx context.Context, key string) (Player, error) {
	row := q.db.QueryRowContext(ctx, getPlayer, key)
	var i Player
	err := row.Scan(
		&i.Key,
		&i.Data,
		&i.Tier,
		&i.DecayDaysLeft,
		&i.LastCheckedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listPlayers = `
SELECT key, data, tier, decay_days_left, last_checked_at, created_at, updated_at
FROM players
ORDER BY key
`

func (q *Queries) ListPlayers(ctx context.Context) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx, listPlayers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Player
	for rows.Next() {
		var i Player
		if err := rows.Scan(
			&i.Key,
			&i.Data,
			&i.Tier,
			&i.DecayDaysLeft,
			&i.LastCheckedAt,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const upsertPlayer = `
INSERT INTO players (key, data, tier, decay_days_left, last_checked_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
    data = excluded.data,
    tier = excluded.tier,
    decay_days_left = excluded.decay_days_left,
    last_checked_at = excluded.last_checked_at,
    updated_at = excluded.updated_at
`

type UpsertPlayerParams struct {
	Key           string
	Data          string
	Tier          string
	DecayDaysLeft int64
	LastCheckedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (q *Queries) UpsertPlayer(ctx context.Context, arg UpsertPlayerParams) error {
	_, err := q.db.ExecContext(ctx, upsertPlayer,
		arg.Key,
		arg.Data,
		arg.Tier,
		arg.DecayDaysLeft,
		arg.LastCheckedAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const deletePlayer = `
DELETE FROM players
WHERE key = ?
`

func (q *Queries) DeletePlayer(ctx context.Context, key string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePlayer, key)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
