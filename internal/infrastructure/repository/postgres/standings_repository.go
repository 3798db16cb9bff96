package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pickemlab/confidence-pool/internal/domain/standings"
	qb "github.com/pickemlab/confidence-pool/internal/platform/querybuilder"
)

type StandingsRepository struct {
	db *sqlx.DB
}

func NewStandingsRepository(db *sqlx.DB) *StandingsRepository {
	return &StandingsRepository{db: db}
}

func (r *StandingsRepository) ListWeeklyScores(ctx context.Context, leagueID string, week int) ([]standings.WeeklyScore, error) {
	query, args, err := qb.Select("*").From("weekly_scores").
		Where(
			qb.Eq("league_id", leagueID),
			qb.Eq("week", week),
		).
		OrderBy("total_points DESC", "entry_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list weekly scores query: %w", err)
	}

	var rows []weeklyScoreTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list weekly scores: %w", err)
	}

	out := make([]standings.WeeklyScore, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *StandingsRepository) ListSeasonScores(ctx context.Context, leagueID string) ([]standings.WeeklyScore, error) {
	query, args, err := qb.Select("*").From("weekly_scores").
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("week", "entry_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list season scores query: %w", err)
	}

	var rows []weeklyScoreTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list season scores: %w", err)
	}

	out := make([]standings.WeeklyScore, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *StandingsRepository) ListWeeklyWinners(ctx context.Context, leagueID string, week int) ([]standings.WeeklyWinner, error) {
	query, args, err := qb.Select("*").From("weekly_winners").
		Where(
			qb.Eq("league_id", leagueID),
			qb.Eq("week", week),
		).
		OrderBy("entry_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list weekly winners query: %w", err)
	}

	var rows []weeklyWinnerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list weekly winners: %w", err)
	}

	out := make([]standings.WeeklyWinner, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *StandingsRepository) ListTiebreakerPredictions(ctx context.Context, leagueID string, week int) ([]standings.TiebreakerPrediction, error) {
	query, args, err := qb.Select("tp.*").
		From("tiebreaker_predictions tp JOIN entries e ON e.public_id = tp.entry_id").
		Where(
			qb.Eq("e.league_id", leagueID),
			qb.Eq("tp.week", week),
			qb.IsNull("e.deleted_at"),
		).
		OrderBy("tp.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list tiebreaker predictions query: %w", err)
	}

	var rows []tiebreakerPredictionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list tiebreaker predictions: %w", err)
	}

	out := make([]standings.TiebreakerPrediction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// ReplaceWeek rewrites the week's scores and winners in one transaction. An
// advisory lock keyed on (league, week) serializes concurrent resolution
// runs; the lock releases with the transaction.
func (r *StandingsRepository) ReplaceWeek(ctx context.Context, leagueID string, week int, scores []standings.WeeklyScore, winners []standings.WeeklyWinner) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace week standings: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1), $2)", leagueID, week); err != nil {
		return fmt.Errorf("acquire week resolution lock: %w", err)
	}

	deleteScoresQuery, deleteScoresArgs, err := qb.DeleteFrom("weekly_scores").
		Where(
			qb.Eq("league_id", leagueID),
			qb.Eq("week", week),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete weekly scores query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteScoresQuery, deleteScoresArgs...); err != nil {
		return fmt.Errorf("delete weekly scores: %w", err)
	}

	for _, score := range scores {
		insertQuery, insertArgs, err := qb.InsertModel("weekly_scores", weeklyScoreInsertModel{
			EntryID:        score.EntryID,
			LeagueID:       score.LeagueID,
			Week:           score.Week,
			TotalPoints:    score.TotalPoints,
			GamesCorrect:   score.GamesCorrect,
			GamesPicked:    score.GamesPicked,
			IsWeeklyWinner: score.IsWeeklyWinner,
		}, "")
		if err != nil {
			return fmt.Errorf("build insert weekly score query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return fmt.Errorf("insert weekly score for entry %s: %w", score.EntryID, err)
		}
	}

	deleteWinnersQuery, deleteWinnersArgs, err := qb.DeleteFrom("weekly_winners").
		Where(
			qb.Eq("league_id", leagueID),
			qb.Eq("week", week),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete weekly winners query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteWinnersQuery, deleteWinnersArgs...); err != nil {
		return fmt.Errorf("delete weekly winners: %w", err)
	}

	for _, winner := range winners {
		insertQuery, insertArgs, err := qb.InsertModel("weekly_winners", weeklyWinnerInsertModel{
			LeagueID:         winner.LeagueID,
			Week:             winner.Week,
			EntryID:          winner.EntryID,
			IsTiedWinner:     winner.IsTiedWinner,
			TiebreakerValue:  intPtrToNullInt64(winner.TiebreakerValue),
			TiedEntriesCount: winner.TiedEntriesCount,
			DecidedAt:        timeToUnix(winner.DecidedAt),
		}, "")
		if err != nil {
			return fmt.Errorf("build insert weekly winner query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return fmt.Errorf("insert weekly winner for entry %s: %w", winner.EntryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace week standings tx: %w", err)
	}
	return nil
}
