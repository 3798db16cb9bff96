package standings

import "time"

// WeeklyScore is one entry's fully recomputed total for a week. Rows are
// replaced wholesale on every resolution run, never patched incrementally.
type WeeklyScore struct {
	EntryID        string
	LeagueID       string
	Week           int
	TotalPoints    int
	GamesCorrect   int
	GamesPicked    int
	IsWeeklyWinner bool
}

// WeeklyWinner is one winning entry for a (league, week).
type WeeklyWinner struct {
	LeagueID         string
	Week             int
	EntryID          string
	IsTiedWinner     bool
	TiebreakerValue  *int
	TiedEntriesCount int
	DecidedAt        time.Time
}

// TiebreakerPrediction is an entry's predicted combined score for the week's
// designated deciding game.
type TiebreakerPrediction struct {
	EntryID        string
	Week           int
	PredictedTotal int
}
