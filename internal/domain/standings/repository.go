package standings

import "context"

type Repository interface {
	ListWeeklyScores(ctx context.Context, leagueID string, week int) ([]WeeklyScore, error)
	ListSeasonScores(ctx context.Context, leagueID string) ([]WeeklyScore, error)
	ListWeeklyWinners(ctx context.Context, leagueID string, week int) ([]WeeklyWinner, error)
	ListTiebreakerPredictions(ctx context.Context, leagueID string, week int) ([]TiebreakerPrediction, error)

	// ReplaceWeek commits a resolution run atomically: weekly scores are
	// replaced, prior winner rows for the week are deleted, and the new
	// winner rows inserted, all under an advisory lock scoped to
	// (league, week) so interleaved runs cannot corrupt winner state.
	ReplaceWeek(ctx context.Context, leagueID string, week int, scores []WeeklyScore, winners []WeeklyWinner) error
}
