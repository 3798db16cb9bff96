package game

import (
	"context"
	"time"
)

// Repository exposes game and result persistence. Result writes happen
// through the pick repository so that re-evaluation commits atomically with
// the score that caused it.
type Repository interface {
	GetByID(ctx context.Context, gameID string) (Game, bool, error)
	GetResult(ctx context.Context, gameID string) (Result, bool, error)
	ListByLeagueWeek(ctx context.Context, leagueID string, week int) ([]Game, error)
	// ListUnlockedByLeague returns games whose picks have not been locked
	// yet, regardless of kickoff time.
	ListUnlockedByLeague(ctx context.Context, leagueID string) ([]Game, error)
	// ListLockedPendingFallback returns locked games whose fallback
	// allocation has not completed yet.
	ListLockedPendingFallback(ctx context.Context, leagueID string) ([]Game, error)
	MarkFallbackDone(ctx context.Context, gameID string, doneAt time.Time) error
	ListResultsByLeagueWeek(ctx context.Context, leagueID string, week int) ([]Result, error)
}
