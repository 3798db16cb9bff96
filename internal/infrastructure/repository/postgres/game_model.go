package postgres

import (
	"database/sql"
	"time"

	"github.com/pickemlab/confidence-pool/internal/domain/game"
)

type gameTableModel struct {
	ID             int64           `db:"id"`
	PublicID       string          `db:"public_id"`
	LeagueID       string          `db:"league_id"`
	Season         int             `db:"season"`
	Week           int             `db:"week"`
	HomeTeam       string          `db:"home_team"`
	AwayTeam       string          `db:"away_team"`
	KickoffAt      int64           `db:"kickoff_at"`
	Status         string          `db:"status"`
	LineSpread     sql.NullFloat64 `db:"line_spread"`
	LineFavorite   sql.NullString  `db:"line_favorite"`
	LockedAt       sql.NullInt64   `db:"locked_at"`
	FallbackDoneAt sql.NullInt64   `db:"fallback_done_at"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
	DeletedAt      *time.Time      `db:"deleted_at"`
}

func (m gameTableModel) toDomain() game.Game {
	g := game.Game{
		ID:             m.PublicID,
		LeagueID:       m.LeagueID,
		Season:         m.Season,
		Week:           m.Week,
		HomeTeam:       m.HomeTeam,
		AwayTeam:       m.AwayTeam,
		KickoffAt:      unixToTime(m.KickoffAt),
		Status:         game.Status(m.Status),
		LockedAt:       nullInt64ToTimePtr(m.LockedAt),
		FallbackDoneAt: nullInt64ToTimePtr(m.FallbackDoneAt),
	}
	if m.LineSpread.Valid && m.LineFavorite.Valid {
		g.Line = &game.Line{Spread: m.LineSpread.Float64, Favorite: m.LineFavorite.String}
	}
	return g
}

type resultTableModel struct {
	ID         int64          `db:"id"`
	GameID     string         `db:"game_id"`
	HomeScore  int            `db:"home_score"`
	AwayScore  int            `db:"away_score"`
	WinnerTeam sql.NullString `db:"winner_team"`
	IsFinal    bool           `db:"is_final"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func (m resultTableModel) toDomain() game.Result {
	return game.Result{
		GameID:     m.GameID,
		HomeScore:  m.HomeScore,
		AwayScore:  m.AwayScore,
		WinnerTeam: nullStringToString(m.WinnerTeam),
		IsFinal:    m.IsFinal,
	}
}

type resultInsertModel struct {
	GameID     string         `db:"game_id"`
	HomeScore  int            `db:"home_score"`
	AwayScore  int            `db:"away_score"`
	WinnerTeam sql.NullString `db:"winner_team"`
	IsFinal    bool           `db:"is_final"`
}
