package postgres

import (
	"database/sql"
	"time"

	"github.com/pickemlab/confidence-pool/internal/domain/standings"
)

type weeklyScoreTableModel struct {
	ID             int64     `db:"id"`
	EntryID        string    `db:"entry_id"`
	LeagueID       string    `db:"league_id"`
	Week           int       `db:"week"`
	TotalPoints    int       `db:"total_points"`
	GamesCorrect   int       `db:"games_correct"`
	GamesPicked    int       `db:"games_picked"`
	IsWeeklyWinner bool      `db:"is_weekly_winner"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (m weeklyScoreTableModel) toDomain() standings.WeeklyScore {
	return standings.WeeklyScore{
		EntryID:        m.EntryID,
		LeagueID:       m.LeagueID,
		Week:           m.Week,
		TotalPoints:    m.TotalPoints,
		GamesCorrect:   m.GamesCorrect,
		GamesPicked:    m.GamesPicked,
		IsWeeklyWinner: m.IsWeeklyWinner,
	}
}

type weeklyScoreInsertModel struct {
	EntryID        string `db:"entry_id"`
	LeagueID       string `db:"league_id"`
	Week           int    `db:"week"`
	TotalPoints    int    `db:"total_points"`
	GamesCorrect   int    `db:"games_correct"`
	GamesPicked    int    `db:"games_picked"`
	IsWeeklyWinner bool   `db:"is_weekly_winner"`
}

type weeklyWinnerTableModel struct {
	ID               int64         `db:"id"`
	LeagueID         string        `db:"league_id"`
	Week             int           `db:"week"`
	EntryID          string        `db:"entry_id"`
	IsTiedWinner     bool          `db:"is_tied_winner"`
	TiebreakerValue  sql.NullInt64 `db:"tiebreaker_value"`
	TiedEntriesCount int           `db:"tied_entries_count"`
	DecidedAt        int64         `db:"decided_at"`
	CreatedAt        time.Time     `db:"created_at"`
}

func (m weeklyWinnerTableModel) toDomain() standings.WeeklyWinner {
	return standings.WeeklyWinner{
		LeagueID:         m.LeagueID,
		Week:             m.Week,
		EntryID:          m.EntryID,
		IsTiedWinner:     m.IsTiedWinner,
		TiebreakerValue:  nullInt64ToIntPtr(m.TiebreakerValue),
		TiedEntriesCount: m.TiedEntriesCount,
		DecidedAt:        unixToTime(m.DecidedAt),
	}
}

type weeklyWinnerInsertModel struct {
	LeagueID         string        `db:"league_id"`
	Week             int           `db:"week"`
	EntryID          string        `db:"entry_id"`
	IsTiedWinner     bool          `db:"is_tied_winner"`
	TiebreakerValue  sql.NullInt64 `db:"tiebreaker_value"`
	TiedEntriesCount int           `db:"tied_entries_count"`
	DecidedAt        int64         `db:"decided_at"`
}

type tiebreakerPredictionTableModel struct {
	ID             int64     `db:"id"`
	EntryID        string    `db:"entry_id"`
	Week           int       `db:"week"`
	PredictedTotal int       `db:"predicted_total"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (m tiebreakerPredictionTableModel) toDomain() standings.TiebreakerPrediction {
	return standings.TiebreakerPrediction{
		EntryID:        m.EntryID,
		Week:           m.Week,
		PredictedTotal: m.PredictedTotal,
	}
}
