package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// MatchWindow is how many recent matches are listed and kept per player.
	MatchWindow       = 20
	RankedSoloQueueID = 420
)

const (
	DefaultBurstLimit      = 20
	DefaultBurstWindow     = 1 * time.Second
	DefaultSustainedLimit  = 100
	DefaultSustainedWindow = 2 * time.Minute
	DefaultFetchWorkers    = 10
	DefaultMaxRetries      = 3
	RetryBaseDelay         = 250 * time.Millisecond
	MaxRetryAfterWait      = 10 * time.Second
	RedisTxRetries         = 10
)

const (
	DecayHistoryLimit = 50
)
