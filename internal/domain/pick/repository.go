package pick

import (
	"context"
	"time"

	"github.com/pickemlab/confidence-pool/internal/domain/game"
)

// Repository persists picks. The multi-row operations are transactional:
// partial application is never left behind.
type Repository interface {
	GetByID(ctx context.Context, pickID string) (Pick, bool, error)
	ListByGame(ctx context.Context, gameID string) ([]Pick, error)
	ListByEntryWeek(ctx context.Context, entryID string, week int) ([]Pick, error)
	ListByLeagueWeek(ctx context.Context, leagueID string, week int) ([]Pick, error)

	// ApplyGameResult upserts the result row, moves the game to status, and
	// rewrites correctness/points for the given picks, all in one
	// transaction. Overwrite semantics: re-applying identical input is a
	// no-op relative to final state.
	ApplyGameResult(ctx context.Context, result game.Result, status game.Status, evals []Evaluation) error

	// LockGamePicks stamps the game row and every still-unlocked pick on it.
	// Both updates predicate on the unlocked state, so overlapping callers
	// serialize into exactly one effective application.
	LockGamePicks(ctx context.Context, gameID string, lockedAt time.Time) (LockOutcome, error)

	// ApplyFallback executes a fallback plan in one transaction: shifts
	// first, highest target value down, then the inserted pick.
	ApplyFallback(ctx context.Context, plan FallbackPlan) error

	Create(ctx context.Context, p Pick) error
	UpdateConfidence(ctx context.Context, pickID string, confidencePoints int) error
	// SwapConfidence moves two picks to their new values in one
	// transaction, so the per-week confidence uniqueness constraint never
	// observes a duplicate.
	SwapConfidence(ctx context.Context, pickID string, confidencePoints int, otherPickID string, otherConfidencePoints int) error
	Unlock(ctx context.Context, pickID string) error
}
