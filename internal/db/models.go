package db

import (
	"time"
)

type Player struct {
	Key           string
	Data          string
	Tier          string
	DecayDaysLeft int64
	LastCheckedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type DecayHistory struct {
	ID         string
	PlayerKey  string
	Tier       string
	Previous   int64
	Updated    int64
	NewMatches int64
	Source     string
	RecordedAt time.Time
}
