package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/pickemlab/confidence-pool/internal/domain/game"
	"github.com/pickemlab/confidence-pool/internal/domain/standings"
)

// GameResultEvent is emitted after an authoritative result commits, carrying
// the number of picks whose correctness was recomputed.
type GameResultEvent struct {
	LeagueID     string      `json:"league_id"`
	Game         game.Game   `json:"game"`
	Result       game.Result `json:"result"`
	UpdatedPicks int         `json:"updated_picks"`
}

// GameLockEvent is emitted once per game lock transition.
type GameLockEvent struct {
	LeagueID      string    `json:"league_id"`
	GameID        string    `json:"game_id"`
	Week          int       `json:"week"`
	LockedAt      time.Time `json:"locked_at"`
	EntryIDs      []string  `json:"entry_ids"`
	FallbackPicks int       `json:"fallback_picks"`
}

// StandingsUpdateEvent carries the fully recomputed weekly score set.
type StandingsUpdateEvent struct {
	LeagueID string                  `json:"league_id"`
	Week     int                     `json:"week"`
	Scores   []standings.WeeklyScore `json:"scores"`
}

// WeeklyWinnerEvent carries the persisted winner rows for a resolved week.
type WeeklyWinnerEvent struct {
	LeagueID string                   `json:"league_id"`
	Week     int                      `json:"week"`
	Winners  []standings.WeeklyWinner `json:"winners"`
}

// EventPublisher pushes engine events to the real-time broadcast
// collaborator. Implementations must not participate in the transaction that
// produced the event; publishing happens after commit.
type EventPublisher interface {
	PublishGameResult(ctx context.Context, event GameResultEvent) error
	PublishGameLock(ctx context.Context, event GameLockEvent) error
	PublishStandingsUpdate(ctx context.Context, event StandingsUpdateEvent) error
	PublishWeeklyWinner(ctx context.Context, event WeeklyWinnerEvent) error
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) PublishGameResult(context.Context, GameResultEvent) error { return nil }
func (NopPublisher) PublishGameLock(context.Context, GameLockEvent) error     { return nil }
func (NopPublisher) PublishStandingsUpdate(context.Context, StandingsUpdateEvent) error {
	return nil
}
func (NopPublisher) PublishWeeklyWinner(context.Context, WeeklyWinnerEvent) error { return nil }

// MultiPublisher fans one event out to several publishers. All publishers
// are attempted; errors are joined.
type MultiPublisher []EventPublisher

func (m MultiPublisher) PublishGameResult(ctx context.Context, event GameResultEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishGameResult(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiPublisher) PublishGameLock(ctx context.Context, event GameLockEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishGameLock(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiPublisher) PublishStandingsUpdate(ctx context.Context, event StandingsUpdateEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishStandingsUpdate(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiPublisher) PublishWeeklyWinner(ctx context.Context, event WeeklyWinnerEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishWeeklyWinner(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
