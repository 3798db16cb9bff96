package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pickemlab/confidence-pool/internal/domain/game"
	qb "github.com/pickemlab/confidence-pool/internal/platform/querybuilder"
)

type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) GetByID(ctx context.Context, gameID string) (game.Game, bool, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("public_id", gameID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build get game by id query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("get game by id: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *GameRepository) GetResult(ctx context.Context, gameID string) (game.Result, bool, error) {
	query, args, err := qb.Select("*").From("results").
		Where(qb.Eq("game_id", gameID)).
		ToSQL()
	if err != nil {
		return game.Result{}, false, fmt.Errorf("build get result query: %w", err)
	}

	var row resultTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Result{}, false, nil
		}
		return game.Result{}, false, fmt.Errorf("get result: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *GameRepository) ListByLeagueWeek(ctx context.Context, leagueID string, week int) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("league_id", leagueID),
			qb.Eq("week", week),
			qb.IsNull("deleted_at"),
		).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games by week query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list games by week: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *GameRepository) ListUnlockedByLeague(ctx context.Context, leagueID string) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("league_id", leagueID),
			qb.IsNull("locked_at"),
			qb.IsNull("deleted_at"),
		).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list unlocked games query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list unlocked games: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *GameRepository) ListLockedPendingFallback(ctx context.Context, leagueID string) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("league_id", leagueID),
			qb.IsNotNull("locked_at"),
			qb.IsNull("fallback_done_at"),
			qb.IsNull("deleted_at"),
		).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games pending fallback query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list games pending fallback: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *GameRepository) MarkFallbackDone(ctx context.Context, gameID string, doneAt time.Time) error {
	query, args, err := qb.Update("games").
		Set("fallback_done_at", timeToUnix(doneAt)).
		SetExpr("updated_at", "now()").
		Where(
			qb.Eq("public_id", gameID),
			qb.IsNull("fallback_done_at"),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark fallback done query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark fallback done: %w", err)
	}
	return nil
}

func (r *GameRepository) ListResultsByLeagueWeek(ctx context.Context, leagueID string, week int) ([]game.Result, error) {
	query, args, err := qb.Select("r.*").
		From("results r JOIN games g ON g.public_id = r.game_id").
		Where(
			qb.Eq("g.league_id", leagueID),
			qb.Eq("g.week", week),
			qb.IsNull("g.deleted_at"),
		).
		OrderBy("r.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list results by week query: %w", err)
	}

	var rows []resultTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list results by week: %w", err)
	}

	out := make([]game.Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
