package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/pickemlab/confidence-pool/internal/domain/audit"
	"github.com/pickemlab/confidence-pool/internal/domain/entry"
	"github.com/pickemlab/confidence-pool/internal/domain/game"
	"github.com/pickemlab/confidence-pool/internal/domain/league"
	"github.com/pickemlab/confidence-pool/internal/domain/pick"
	"github.com/pickemlab/confidence-pool/internal/platform/id"
	"github.com/pickemlab/confidence-pool/internal/platform/logging"
)

const defaultFallbackWorkers = 8

// SystemActor identifies engine-initiated mutations in the audit trail.
const SystemActor = "system"

// FallbackService fills missing picks when a game locks, keeping each
// entry's week a strict 1..N confidence permutation.
type FallbackService struct {
	entries entry.Repository
	games   game.Repository
	picks   pick.Repository
	ids     id.Generator
	auditor *AuditRecorder
	logger  *logging.Logger
	workers int
}

func NewFallbackService(
	entries entry.Repository,
	games game.Repository,
	picks pick.Repository,
	auditor *AuditRecorder,
	logger *logging.Logger,
) *FallbackService {
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackService{
		entries: entries,
		games:   games,
		picks:   picks,
		ids:     id.NewRandomGenerator(),
		auditor: auditor,
		logger:  logger,
		workers: defaultFallbackWorkers,
	}
}

// FillMissingPicks creates a locked fallback pick for every active entry
// lacking one on the locked game. Entries are processed independently on a
// worker pool; one entry failing never blocks the rest of the batch. A
// returned error means at least one entry's allocation did not persist and
// the whole call must be retried. Planning failures (no free slot is a
// data-corruption signal) are logged but not returned, since retrying
// cannot fix them.
func (s *FallbackService) FillMissingPicks(ctx context.Context, lg league.League, g game.Game, lockedAt time.Time) ([]pick.FallbackPlan, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FallbackService.FillMissingPicks")
	defer span.End()

	activeEntries, err := s.entries.ListActiveByLeague(ctx, lg.ID)
	if err != nil {
		return nil, fmt.Errorf("list active entries for fallback: %w", err)
	}
	if len(activeEntries) == 0 {
		return nil, nil
	}

	weekGames, err := s.games.ListByLeagueWeek(ctx, lg.ID, g.Week)
	if err != nil {
		return nil, fmt.Errorf("list week games for fallback: %w", err)
	}
	slotCount := len(weekGames)

	weekPicks, err := s.picks.ListByLeagueWeek(ctx, lg.ID, g.Week)
	if err != nil {
		return nil, fmt.Errorf("list week picks for fallback: %w", err)
	}
	picksByEntry := make(map[string][]pick.Pick, len(activeEntries))
	for _, p := range weekPicks {
		picksByEntry[p.EntryID] = append(picksByEntry[p.EntryID], p)
	}

	missing := make([]entry.Entry, 0)
	for _, e := range activeEntries {
		if hasPickForGame(picksByEntry[e.ID], g.ID) {
			continue
		}
		missing = append(missing, e)
	}
	if len(missing) == 0 {
		return nil, nil
	}

	workerCount := s.workers
	if workerCount > len(missing) {
		workerCount = len(missing)
	}
	workerPool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, fmt.Errorf("create fallback worker pool: %w", err)
	}
	defer workerPool.Release()

	var mu sync.Mutex
	applied := make([]pick.FallbackPlan, 0, len(missing))
	var failures []error

	var workers sync.WaitGroup
	for _, e := range missing {
		e := e
		workers.Add(1)
		submitErr := workerPool.Submit(func() {
			defer workers.Done()

			plan, planErr := planFallback(picksByEntry[e.ID], g.ID, g.Week, slotCount, lockedAt)
			if planErr != nil {
				s.logger.ErrorContext(ctx, "fallback allocation failed",
					"entry_id", e.ID, "game_id", g.ID, "week", g.Week, "error", planErr)
				return
			}
			plan.EntryID = e.ID
			plan.PickID, planErr = s.ids.NewID()
			if planErr != nil {
				s.logger.ErrorContext(ctx, "fallback pick id generation failed",
					"entry_id", e.ID, "game_id", g.ID, "error", planErr)
				mu.Lock()
				failures = append(failures, fmt.Errorf("entry %s: generate pick id: %w", e.ID, planErr))
				mu.Unlock()
				return
			}

			if applyErr := s.picks.ApplyFallback(ctx, plan); applyErr != nil {
				s.logger.ErrorContext(ctx, "fallback apply failed",
					"entry_id", e.ID, "game_id", g.ID, "week", g.Week, "error", applyErr)
				mu.Lock()
				failures = append(failures, fmt.Errorf("entry %s: apply fallback: %w", e.ID, applyErr))
				mu.Unlock()
				return
			}

			s.auditor.Record(ctx, audit.Entry{
				EntryID: e.ID,
				GameID:  g.ID,
				Week:    g.Week,
				Action:  audit.ActionFallbackAssign,
				Actor:   SystemActor,
				After: &audit.Snapshot{
					Team:             pick.NoSelection,
					ConfidencePoints: plan.AssignedPoints,
					IsLocked:         true,
				},
				Reason: "missing pick at kickoff",
			})

			mu.Lock()
			applied = append(applied, plan)
			mu.Unlock()
		})
		if submitErr != nil {
			workers.Done()
			mu.Lock()
			failures = append(failures, fmt.Errorf("submit fallback task: %w", submitErr))
			mu.Unlock()
			break
		}
	}
	workers.Wait()

	if len(failures) > 0 {
		return applied, fmt.Errorf("fallback pass incomplete: %w", errors.Join(failures...))
	}
	return applied, nil
}

func hasPickForGame(picks []pick.Pick, gameID string) bool {
	for _, p := range picks {
		if p.GameID == gameID {
			return true
		}
	}
	return false
}

// planFallback computes the mutations that give a missing pick the least
// valuable confidence slot reachable without moving any real choice to a
// worse one. Locked picks are immovable; unlocked picks only ever shift up
// by one.
//
// The candidate slot is the lowest value not held by a locked pick whose
// shift cascade reaches a free value without crossing a locked pick. Picks
// inside the cascade range shift up by one, highest value first, so no two
// picks ever hold the same value mid-application.
func planFallback(entryPicks []pick.Pick, gameID string, week, slotCount int, lockedAt time.Time) (pick.FallbackPlan, error) {
	if slotCount <= 0 {
		return pick.FallbackPlan{}, fmt.Errorf("%w: week has no games", ErrInvalidInput)
	}
	if len(entryPicks) >= slotCount {
		return pick.FallbackPlan{}, fmt.Errorf("%w: entry already holds %d of %d slots", ErrNoConfidenceSlot, len(entryPicks), slotCount)
	}

	lockedByValue := make(map[int]bool, len(entryPicks))
	pickByValue := make(map[int]pick.Pick, len(entryPicks))
	for _, p := range entryPicks {
		if p.ConfidencePoints < 1 || p.ConfidencePoints > slotCount {
			return pick.FallbackPlan{}, fmt.Errorf("%w: pick %s holds out-of-range value %d", ErrNoConfidenceSlot, p.ID, p.ConfidencePoints)
		}
		if _, dup := pickByValue[p.ConfidencePoints]; dup {
			return pick.FallbackPlan{}, fmt.Errorf("%w: duplicate confidence value %d", ErrNoConfidenceSlot, p.ConfidencePoints)
		}
		pickByValue[p.ConfidencePoints] = p
		if p.IsLocked {
			lockedByValue[p.ConfidencePoints] = true
		}
	}

	for candidate := 1; candidate <= slotCount; candidate++ {
		if lockedByValue[candidate] {
			continue
		}

		// Walk upward until a free value absorbs the cascade; a locked
		// pick in the way disqualifies this candidate.
		end := candidate
		blocked := false
		for {
			if _, held := pickByValue[end]; !held {
				break
			}
			if lockedByValue[end] {
				blocked = true
				break
			}
			end++
			if end > slotCount {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}

		shifts := make([]pick.Shift, 0, end-candidate)
		for value := end - 1; value >= candidate; value-- {
			moved := pickByValue[value]
			shifts = append(shifts, pick.Shift{
				PickID:     moved.ID,
				FromPoints: value,
				ToPoints:   value + 1,
			})
		}

		return pick.FallbackPlan{
			GameID:         gameID,
			Week:           week,
			AssignedPoints: candidate,
			Shifts:         shifts,
			LockedAt:       lockedAt,
		}, nil
	}

	return pick.FallbackPlan{}, fmt.Errorf("%w: all slots below held values are locked", ErrNoConfidenceSlot)
}
