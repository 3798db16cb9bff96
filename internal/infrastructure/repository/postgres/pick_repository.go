package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pickemlab/confidence-pool/internal/domain/game"
	"github.com/pickemlab/confidence-pool/internal/domain/pick"
	qb "github.com/pickemlab/confidence-pool/internal/platform/querybuilder"
)

type PickRepository struct {
	db *sqlx.DB
}

func NewPickRepository(db *sqlx.DB) *PickRepository {
	return &PickRepository{db: db}
}

func (r *PickRepository) GetByID(ctx context.Context, pickID string) (pick.Pick, bool, error) {
	query, args, err := qb.Select("*").From("picks").
		Where(
			qb.Eq("public_id", pickID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return pick.Pick{}, false, fmt.Errorf("build get pick by id query: %w", err)
	}

	var row pickTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return pick.Pick{}, false, nil
		}
		return pick.Pick{}, false, fmt.Errorf("get pick by id: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *PickRepository) ListByGame(ctx context.Context, gameID string) ([]pick.Pick, error) {
	return r.list(ctx, qb.Eq("game_id", gameID))
}

func (r *PickRepository) ListByEntryWeek(ctx context.Context, entryID string, week int) ([]pick.Pick, error) {
	return r.list(ctx, qb.Eq("entry_id", entryID), qb.Eq("week", week))
}

func (r *PickRepository) ListByLeagueWeek(ctx context.Context, leagueID string, week int) ([]pick.Pick, error) {
	query, args, err := qb.Select("p.*").
		From("picks p JOIN games g ON g.public_id = p.game_id").
		Where(
			qb.Eq("g.league_id", leagueID),
			qb.Eq("p.week", week),
			qb.IsNull("p.deleted_at"),
		).
		OrderBy("p.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list picks by league week query: %w", err)
	}

	var rows []pickTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list picks by league week: %w", err)
	}

	out := make([]pick.Pick, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PickRepository) list(ctx context.Context, conditions ...qb.Condition) ([]pick.Pick, error) {
	conditions = append(conditions, qb.IsNull("deleted_at"))
	query, args, err := qb.Select("*").From("picks").
		Where(conditions...).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list picks query: %w", err)
	}

	var rows []pickTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list picks: %w", err)
	}

	out := make([]pick.Pick, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// ApplyGameResult commits the result upsert, game status, and pick
// re-evaluation in one transaction so a crash can never leave the result
// visible without its score effects.
func (r *PickRepository) ApplyGameResult(ctx context.Context, result game.Result, status game.Status, evals []pick.Evaluation) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx apply game result: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	upsertQuery, upsertArgs, err := qb.InsertModel("results", resultInsertModel{
		GameID:     result.GameID,
		HomeScore:  result.HomeScore,
		AwayScore:  result.AwayScore,
		WinnerTeam: stringToNullString(result.WinnerTeam),
		IsFinal:    result.IsFinal,
	}, `ON CONFLICT (game_id) DO UPDATE SET
		home_score = EXCLUDED.home_score,
		away_score = EXCLUDED.away_score,
		winner_team = EXCLUDED.winner_team,
		is_final = EXCLUDED.is_final,
		updated_at = now()`)
	if err != nil {
		return fmt.Errorf("build upsert result query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsertQuery, upsertArgs...); err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}

	statusQuery, statusArgs, err := qb.Update("games").
		Set("status", string(status)).
		SetExpr("updated_at", "now()").
		Where(
			qb.Eq("public_id", result.GameID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update game status query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, statusQuery, statusArgs...); err != nil {
		return fmt.Errorf("update game status: %w", err)
	}

	for _, eval := range evals {
		pickQuery, pickArgs, err := qb.Update("picks").
			Set("correctness", string(eval.Correctness)).
			Set("points_earned", eval.PointsEarned).
			SetExpr("updated_at", "now()").
			Where(
				qb.Eq("public_id", eval.PickID),
				qb.IsNull("deleted_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update pick evaluation query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, pickQuery, pickArgs...); err != nil {
			return fmt.Errorf("update pick %s evaluation: %w", eval.PickID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply game result tx: %w", err)
	}
	return nil
}

// LockGamePicks stamps the game and its still-unlocked picks. The game
// update predicates on locked_at IS NULL, so of any number of overlapping
// callers exactly one observes GameLocked true.
func (r *PickRepository) LockGamePicks(ctx context.Context, gameID string, lockedAt time.Time) (pick.LockOutcome, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return pick.LockOutcome{}, fmt.Errorf("begin tx lock game picks: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	gameQuery, gameArgs, err := qb.Update("games").
		Set("locked_at", timeToUnix(lockedAt)).
		SetExpr("updated_at", "now()").
		Where(
			qb.Eq("public_id", gameID),
			qb.IsNull("locked_at"),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return pick.LockOutcome{}, fmt.Errorf("build lock game query: %w", err)
	}
	gameResult, err := tx.ExecContext(ctx, gameQuery, gameArgs...)
	if err != nil {
		return pick.LockOutcome{}, fmt.Errorf("lock game: %w", err)
	}
	lockedRows, err := gameResult.RowsAffected()
	if err != nil {
		return pick.LockOutcome{}, fmt.Errorf("lock game rows affected: %w", err)
	}

	outcome := pick.LockOutcome{GameLocked: lockedRows == 1}

	pickQuery, pickArgs, err := qb.Update("picks").
		Set("is_locked", true).
		Set("locked_at", timeToUnix(lockedAt)).
		SetExpr("updated_at", "now()").
		Where(
			qb.Eq("game_id", gameID),
			qb.Eq("is_locked", false),
			qb.IsNull("deleted_at"),
		).
		Suffix("RETURNING entry_id").
		ToSQL()
	if err != nil {
		return pick.LockOutcome{}, fmt.Errorf("build lock picks query: %w", err)
	}
	if err := tx.SelectContext(ctx, &outcome.EntryIDs, pickQuery, pickArgs...); err != nil {
		return pick.LockOutcome{}, fmt.Errorf("lock picks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return pick.LockOutcome{}, fmt.Errorf("commit lock game picks tx: %w", err)
	}
	return outcome, nil
}

// ApplyFallback executes the plan in one transaction: shifts are applied in
// the order given (highest target first, so the unique confidence index is
// never violated mid-flight), then the fallback pick is inserted. A shift
// that matches no unlocked row aborts the whole plan.
func (r *PickRepository) ApplyFallback(ctx context.Context, plan pick.FallbackPlan) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx apply fallback: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, shift := range plan.Shifts {
		shiftQuery, shiftArgs, err := qb.Update("picks").
			Set("confidence_points", shift.ToPoints).
			SetExpr("updated_at", "now()").
			Where(
				qb.Eq("public_id", shift.PickID),
				qb.Eq("confidence_points", shift.FromPoints),
				qb.Eq("is_locked", false),
				qb.IsNull("deleted_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build shift pick query: %w", err)
		}
		shiftResult, err := tx.ExecContext(ctx, shiftQuery, shiftArgs...)
		if err != nil {
			return fmt.Errorf("shift pick %s: %w", shift.PickID, err)
		}
		affected, err := shiftResult.RowsAffected()
		if err != nil {
			return fmt.Errorf("shift pick rows affected: %w", err)
		}
		if affected != 1 {
			return fmt.Errorf("shift pick %s: pick moved or locked since planning", shift.PickID)
		}
	}

	insertQuery, insertArgs, err := qb.InsertModel("picks", pickInsertModel{
		PublicID:         plan.PickID,
		EntryID:          plan.EntryID,
		GameID:           plan.GameID,
		Week:             plan.Week,
		Team:             pick.NoSelection,
		ConfidencePoints: plan.AssignedPoints,
		Correctness:      string(pick.CorrectnessPending),
		IsLocked:         true,
		LockedAt:         timePtrToNullInt64(&plan.LockedAt),
	}, "")
	if err != nil {
		return fmt.Errorf("build insert fallback pick query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return fmt.Errorf("insert fallback pick: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply fallback tx: %w", err)
	}
	return nil
}

func (r *PickRepository) Create(ctx context.Context, p pick.Pick) error {
	query, args, err := qb.InsertModel("picks", pickToInsertModel(p), "")
	if err != nil {
		return fmt.Errorf("build insert pick query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert pick: %w", err)
	}
	return nil
}

func (r *PickRepository) UpdateConfidence(ctx context.Context, pickID string, confidencePoints int) error {
	query, args, err := qb.Update("picks").
		Set("confidence_points", confidencePoints).
		SetExpr("updated_at", "now()").
		Where(
			qb.Eq("public_id", pickID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update pick confidence query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update pick confidence: %w", err)
	}
	return nil
}

// swapParkOffset pushes a confidence value far outside the 1..N range any
// real week can reach.
const swapParkOffset = 100000

// SwapConfidence exchanges two picks' values in one transaction. The first
// pick parks on an out-of-range value before either row takes its final
// one, so the unique confidence index never observes a duplicate at any
// point in the swap.
func (r *PickRepository) SwapConfidence(ctx context.Context, pickID string, confidencePoints int, otherPickID string, otherConfidencePoints int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx swap pick confidence: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	steps := []struct {
		pickID string
		points int
	}{
		{pickID, confidencePoints + swapParkOffset},
		{otherPickID, otherConfidencePoints},
		{pickID, confidencePoints},
	}
	for _, step := range steps {
		query, args, err := qb.Update("picks").
			Set("confidence_points", step.points).
			SetExpr("updated_at", "now()").
			Where(
				qb.Eq("public_id", step.pickID),
				qb.IsNull("deleted_at"),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build swap pick confidence query: %w", err)
		}
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("swap pick %s confidence: %w", step.pickID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("swap pick confidence rows affected: %w", err)
		}
		if affected != 1 {
			return fmt.Errorf("swap pick %s confidence: pick deleted since read", step.pickID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit swap pick confidence tx: %w", err)
	}
	return nil
}

func (r *PickRepository) Unlock(ctx context.Context, pickID string) error {
	query, args, err := qb.Update("picks").
		Set("is_locked", false).
		SetExpr("locked_at", "NULL").
		SetExpr("updated_at", "now()").
		Where(
			qb.Eq("public_id", pickID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build unlock pick query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("unlock pick: %w", err)
	}
	return nil
}
