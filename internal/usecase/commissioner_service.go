package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/pickemlab/confidence-pool/internal/domain/audit"
	"github.com/pickemlab/confidence-pool/internal/domain/entry"
	"github.com/pickemlab/confidence-pool/internal/domain/game"
	"github.com/pickemlab/confidence-pool/internal/domain/pick"
	"github.com/pickemlab/confidence-pool/internal/platform/id"
	"github.com/pickemlab/confidence-pool/internal/platform/logging"
)

// AssignPickInput is a commissioner creating a pick on another entry's
// behalf, typically to repair a missed or disputed deadline.
type AssignPickInput struct {
	EntryID          string
	GameID           string
	Team             string
	ConfidencePoints int
	Commissioner     string
	Reason           string
}

// AdjustWeightInput moves an existing pick to a new confidence value.
type AdjustWeightInput struct {
	PickID           string
	ConfidencePoints int
	Commissioner     string
	Reason           string
}

// UnlockInput is the explicit escape hatch from the one-way lock.
type UnlockInput struct {
	PickID       string
	Commissioner string
	Reason       string
}

// CommissionerService performs the privileged pick mutations ordinary
// members cannot. Every call leaves an audit entry naming the commissioner
// and the stated reason; an empty reason is rejected up front.
type CommissionerService struct {
	entries entry.Repository
	games   game.Repository
	picks   pick.Repository
	ids     id.Generator
	auditor *AuditRecorder
	logger  *logging.Logger
	now     func() time.Time
}

func NewCommissionerService(
	entries entry.Repository,
	games game.Repository,
	picks pick.Repository,
	ids id.Generator,
	auditor *AuditRecorder,
	logger *logging.Logger,
) *CommissionerService {
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CommissionerService{
		entries: entries,
		games:   games,
		picks:   picks,
		ids:     ids,
		auditor: auditor,
		logger:  logger,
		now:     time.Now,
	}
}

// AssignPick creates a pick for an entry that has none on the game. The
// requested confidence value must be free within the entry's week; the
// commissioner resolves collisions explicitly rather than the service
// shifting other picks around.
func (s *CommissionerService) AssignPick(ctx context.Context, in AssignPickInput) (pick.Pick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CommissionerService.AssignPick")
	defer span.End()

	if err := s.requireActor(in.Commissioner, in.Reason); err != nil {
		return pick.Pick{}, err
	}
	if in.EntryID == "" || in.GameID == "" || in.Team == "" {
		return pick.Pick{}, fmt.Errorf("%w: entry id, game id, and team are required", ErrInvalidInput)
	}

	e, found, err := s.entries.GetByID(ctx, in.EntryID)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("get entry: %w", err)
	}
	if !found {
		return pick.Pick{}, fmt.Errorf("%w: entry %s", ErrNotFound, in.EntryID)
	}

	g, found, err := s.games.GetByID(ctx, in.GameID)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("get game: %w", err)
	}
	if !found {
		return pick.Pick{}, fmt.Errorf("%w: game %s", ErrNotFound, in.GameID)
	}
	if in.Team != g.HomeTeam && in.Team != g.AwayTeam {
		return pick.Pick{}, fmt.Errorf("%w: team %q is not playing in game %s", ErrInvalidInput, in.Team, g.ID)
	}

	weekGames, err := s.games.ListByLeagueWeek(ctx, e.LeagueID, g.Week)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("list week games: %w", err)
	}
	if in.ConfidencePoints < 1 || in.ConfidencePoints > len(weekGames) {
		return pick.Pick{}, fmt.Errorf("%w: confidence %d outside 1..%d", ErrInvalidInput, in.ConfidencePoints, len(weekGames))
	}

	weekPicks, err := s.picks.ListByEntryWeek(ctx, in.EntryID, g.Week)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("list entry week picks: %w", err)
	}
	for _, existing := range weekPicks {
		if existing.GameID == in.GameID {
			return pick.Pick{}, fmt.Errorf("%w: entry already has a pick on game %s", ErrInvalidInput, in.GameID)
		}
		if existing.ConfidencePoints == in.ConfidencePoints {
			return pick.Pick{}, fmt.Errorf("%w: confidence %d already held by pick %s", ErrInvalidInput, in.ConfidencePoints, existing.ID)
		}
	}

	pickID, err := s.ids.NewID()
	if err != nil {
		return pick.Pick{}, fmt.Errorf("generate pick id: %w", err)
	}
	created := pick.Pick{
		ID:               pickID,
		EntryID:          in.EntryID,
		GameID:           in.GameID,
		Week:             g.Week,
		Team:             in.Team,
		ConfidencePoints: in.ConfidencePoints,
		Correctness:      pick.CorrectnessPending,
	}
	if g.IsLocked() {
		// A pick assigned after kickoff locks immediately.
		lockedAt := s.now().UTC()
		created.IsLocked = true
		created.LockedAt = &lockedAt
	}
	if err := s.picks.Create(ctx, created); err != nil {
		return pick.Pick{}, fmt.Errorf("create commissioner pick: %w", err)
	}

	s.auditor.Record(ctx, audit.Entry{
		EntryID: in.EntryID,
		GameID:  in.GameID,
		Week:    g.Week,
		Action:  audit.ActionCommissionerAssign,
		Actor:   in.Commissioner,
		After: &audit.Snapshot{
			Team:             created.Team,
			ConfidencePoints: created.ConfidencePoints,
			IsLocked:         created.IsLocked,
		},
		Reason:               in.Reason,
		IsCommissionerAction: true,
	})
	return created, nil
}

// AdjustWeight moves a pick to a new confidence value. When another pick of
// the same entry and week holds the target value, the two swap, which keeps
// the week a permutation without touching anything else. A locked holder
// blocks the swap.
func (s *CommissionerService) AdjustWeight(ctx context.Context, in AdjustWeightInput) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.CommissionerService.AdjustWeight")
	defer span.End()

	if err := s.requireActor(in.Commissioner, in.Reason); err != nil {
		return err
	}
	if in.PickID == "" {
		return fmt.Errorf("%w: pick id is required", ErrInvalidInput)
	}

	target, found, err := s.picks.GetByID(ctx, in.PickID)
	if err != nil {
		return fmt.Errorf("get pick: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: pick %s", ErrNotFound, in.PickID)
	}
	if target.ConfidencePoints == in.ConfidencePoints {
		return nil
	}

	e, found, err := s.entries.GetByID(ctx, target.EntryID)
	if err != nil {
		return fmt.Errorf("get entry: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: entry %s", ErrNotFound, target.EntryID)
	}
	weekGames, err := s.games.ListByLeagueWeek(ctx, e.LeagueID, target.Week)
	if err != nil {
		return fmt.Errorf("list week games: %w", err)
	}
	if in.ConfidencePoints < 1 || in.ConfidencePoints > len(weekGames) {
		return fmt.Errorf("%w: confidence %d outside 1..%d", ErrInvalidInput, in.ConfidencePoints, len(weekGames))
	}

	weekPicks, err := s.picks.ListByEntryWeek(ctx, target.EntryID, target.Week)
	if err != nil {
		return fmt.Errorf("list entry week picks: %w", err)
	}
	var holder *pick.Pick
	for i := range weekPicks {
		if weekPicks[i].ID != target.ID && weekPicks[i].ConfidencePoints == in.ConfidencePoints {
			holder = &weekPicks[i]
			break
		}
	}
	if holder != nil && holder.IsLocked {
		return fmt.Errorf("%w: confidence %d is held by a locked pick", ErrPickLocked, in.ConfidencePoints)
	}

	if holder != nil {
		// Both values are held, so the exchange goes through the repo's
		// atomic swap; updating the picks one at a time would collide
		// with the per-week confidence uniqueness constraint.
		if err := s.picks.SwapConfidence(ctx, target.ID, in.ConfidencePoints, holder.ID, target.ConfidencePoints); err != nil {
			return fmt.Errorf("swap pick confidence: %w", err)
		}
		s.auditor.Record(ctx, audit.Entry{
			EntryID:              holder.EntryID,
			GameID:               holder.GameID,
			Week:                 holder.Week,
			Action:               audit.ActionUpdate,
			Actor:                in.Commissioner,
			Before:               &audit.Snapshot{Team: holder.Team, ConfidencePoints: holder.ConfidencePoints, IsLocked: holder.IsLocked},
			After:                &audit.Snapshot{Team: holder.Team, ConfidencePoints: target.ConfidencePoints, IsLocked: holder.IsLocked},
			Reason:               "confidence swap: " + in.Reason,
			IsCommissionerAction: true,
		})
	} else if err := s.picks.UpdateConfidence(ctx, target.ID, in.ConfidencePoints); err != nil {
		return fmt.Errorf("update pick confidence: %w", err)
	}

	s.auditor.Record(ctx, audit.Entry{
		EntryID:              target.EntryID,
		GameID:               target.GameID,
		Week:                 target.Week,
		Action:               audit.ActionCommissionerAdjust,
		Actor:                in.Commissioner,
		Before:               &audit.Snapshot{Team: target.Team, ConfidencePoints: target.ConfidencePoints, IsLocked: target.IsLocked},
		After:                &audit.Snapshot{Team: target.Team, ConfidencePoints: in.ConfidencePoints, IsLocked: target.IsLocked},
		Reason:               in.Reason,
		IsCommissionerAction: true,
	})
	return nil
}

// Unlock reverses a pick's lock. This is the only path that ever clears a
// lock; it exists for disputes and data corrections and is always audited.
func (s *CommissionerService) Unlock(ctx context.Context, in UnlockInput) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.CommissionerService.Unlock")
	defer span.End()

	if err := s.requireActor(in.Commissioner, in.Reason); err != nil {
		return err
	}
	if in.PickID == "" {
		return fmt.Errorf("%w: pick id is required", ErrInvalidInput)
	}

	p, found, err := s.picks.GetByID(ctx, in.PickID)
	if err != nil {
		return fmt.Errorf("get pick: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: pick %s", ErrNotFound, in.PickID)
	}
	if !p.IsLocked {
		return fmt.Errorf("%w: pick %s is not locked", ErrInvalidInput, in.PickID)
	}

	if err := s.picks.Unlock(ctx, p.ID); err != nil {
		return fmt.Errorf("unlock pick: %w", err)
	}

	s.auditor.Record(ctx, audit.Entry{
		EntryID:              p.EntryID,
		GameID:               p.GameID,
		Week:                 p.Week,
		Action:               audit.ActionUnlockOverride,
		Actor:                in.Commissioner,
		Before:               &audit.Snapshot{Team: p.Team, ConfidencePoints: p.ConfidencePoints, IsLocked: true},
		After:                &audit.Snapshot{Team: p.Team, ConfidencePoints: p.ConfidencePoints, IsLocked: false},
		Reason:               in.Reason,
		IsCommissionerAction: true,
	})
	return nil
}

func (s *CommissionerService) requireActor(commissioner, reason string) error {
	if commissioner == "" {
		return fmt.Errorf("%w: commissioner is required", ErrInvalidInput)
	}
	if reason == "" {
		return fmt.Errorf("%w: a reason is required for commissioner actions", ErrInvalidInput)
	}
	return nil
}
