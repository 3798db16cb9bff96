package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/pickemlab/confidence-pool/internal/domain/game"
	"github.com/pickemlab/confidence-pool/internal/domain/league"
	"github.com/pickemlab/confidence-pool/internal/domain/pick"
	"github.com/pickemlab/confidence-pool/internal/platform/logging"
	"github.com/pickemlab/confidence-pool/internal/platform/resilience"
)

// TickSummary reports what one scheduler pass did.
type TickSummary struct {
	LeaguesScanned int  `json:"leagues_scanned"`
	GamesLocked    int  `json:"games_locked"`
	FallbackPicks  int  `json:"fallback_picks"`
	Shared         bool `json:"shared"`
}

// LockService locks games when their deadline passes. Tick is safe to call
// from overlapping schedulers: concurrent ticks collapse into one pass and
// the pick repository's lock predicate makes re-locking a no-op.
type LockService struct {
	leagues   league.Repository
	games     game.Repository
	picks     pick.Repository
	fallback  *FallbackService
	publisher EventPublisher
	logger    *logging.Logger
	flight    resilience.SingleFlight
	now       func() time.Time
}

func NewLockService(
	leagues league.Repository,
	games game.Repository,
	picks pick.Repository,
	fallback *FallbackService,
	publisher EventPublisher,
	logger *logging.Logger,
) *LockService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LockService{
		leagues:   leagues,
		games:     games,
		picks:     picks,
		fallback:  fallback,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Tick scans every active league and locks each game whose deadline has
// passed. Failures in one league are logged and left for the next tick;
// they never abort the scan.
func (s *LockService) Tick(ctx context.Context) (TickSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LockService.Tick")
	defer span.End()

	result, err, shared := s.flight.Do("lock-tick", func() (any, error) {
		return s.tick(ctx, s.now().UTC())
	})
	if err != nil {
		return TickSummary{}, err
	}
	summary := result.(TickSummary)
	summary.Shared = shared
	return summary, nil
}

func (s *LockService) tick(ctx context.Context, now time.Time) (TickSummary, error) {
	leagues, err := s.leagues.ListActive(ctx)
	if err != nil {
		return TickSummary{}, fmt.Errorf("list active leagues: %w", err)
	}

	summary := TickSummary{LeaguesScanned: len(leagues)}
	for _, lg := range leagues {
		locked, fallbacks, leagueErr := s.tickLeague(ctx, lg, now)
		summary.GamesLocked += locked
		summary.FallbackPicks += fallbacks
		if leagueErr != nil {
			s.logger.ErrorContext(ctx, "lock tick failed for league",
				"league_id", lg.ID, "error", leagueErr)
		}
	}
	return summary, nil
}

func (s *LockService) tickLeague(ctx context.Context, lg league.League, now time.Time) (locked, fallbacks int, err error) {
	unlocked, err := s.games.ListUnlockedByLeague(ctx, lg.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("list unlocked games: %w", err)
	}

	due := dueForLock(lg.DeadlinePolicy, unlocked, now)
	newlyLocked := make([]lockedGame, 0, len(due))
	for _, g := range due {
		outcome, lockErr := s.picks.LockGamePicks(ctx, g.ID, now)
		if lockErr != nil {
			err = fmt.Errorf("lock game %s: %w", g.ID, lockErr)
			continue
		}
		if !outcome.GameLocked {
			// Another tick already took this transition.
			continue
		}
		locked++
		newlyLocked = append(newlyLocked, lockedGame{game: g, outcome: outcome})
	}

	// The fallback sweep runs on the done marker, not on the lock
	// transition, so an allocation that failed after the lock committed is
	// retried every tick until it persists.
	fallbackCounts := make(map[string]int)
	pending, pendErr := s.games.ListLockedPendingFallback(ctx, lg.ID)
	if pendErr != nil && err == nil {
		err = fmt.Errorf("list games pending fallback: %w", pendErr)
	}
	for _, g := range pending {
		lockedAt := now
		if g.LockedAt != nil {
			lockedAt = *g.LockedAt
		}
		plans, fbErr := s.fallback.FillMissingPicks(ctx, lg, g, lockedAt)
		fallbacks += len(plans)
		fallbackCounts[g.ID] += len(plans)
		if fbErr != nil {
			// Marker stays unset; the next tick retries this game.
			s.logger.ErrorContext(ctx, "fallback pass failed",
				"league_id", lg.ID, "game_id", g.ID, "error", fbErr)
			continue
		}
		if markErr := s.games.MarkFallbackDone(ctx, g.ID, now); markErr != nil {
			s.logger.ErrorContext(ctx, "mark fallback done failed",
				"league_id", lg.ID, "game_id", g.ID, "error", markErr)
		}
	}

	for _, lk := range newlyLocked {
		event := GameLockEvent{
			LeagueID:      lg.ID,
			GameID:        lk.game.ID,
			Week:          lk.game.Week,
			LockedAt:      now,
			EntryIDs:      lk.outcome.EntryIDs,
			FallbackPicks: fallbackCounts[lk.game.ID],
		}
		if pubErr := s.publisher.PublishGameLock(ctx, event); pubErr != nil {
			s.logger.WarnContext(ctx, "publish game lock event failed",
				"league_id", lg.ID, "game_id", lk.game.ID, "error", pubErr)
		}
	}
	return locked, fallbacks, err
}

type lockedGame struct {
	game    game.Game
	outcome pick.LockOutcome
}

// dueForLock selects which of a league's unlocked games must lock now.
//
// Per-game policy: a game locks at its own kickoff. League-wide policy: the
// earliest kickoff of a week locks the entire week at once, so a Thursday
// game starting freezes Sunday picks too.
func dueForLock(policy league.DeadlinePolicy, unlocked []game.Game, now time.Time) []game.Game {
	switch policy {
	case league.DeadlineLeagueWideFirstGame:
		weekDeadline := make(map[int]time.Time, 4)
		for _, g := range unlocked {
			first, ok := weekDeadline[g.Week]
			if !ok || g.KickoffAt.Before(first) {
				weekDeadline[g.Week] = g.KickoffAt
			}
		}
		due := make([]game.Game, 0, len(unlocked))
		for _, g := range unlocked {
			if !weekDeadline[g.Week].After(now) {
				due = append(due, g)
			}
		}
		return due
	default:
		due := make([]game.Game, 0, len(unlocked))
		for _, g := range unlocked {
			if !g.KickoffAt.After(now) {
				due = append(due, g)
			}
		}
		return due
	}
}
