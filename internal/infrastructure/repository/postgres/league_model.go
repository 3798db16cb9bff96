package postgres

import (
	"time"

	"github.com/pickemlab/confidence-pool/internal/domain/league"
)

type leagueTableModel struct {
	ID             int64      `db:"id"`
	PublicID       string     `db:"public_id"`
	Name           string     `db:"name"`
	Season         int        `db:"season"`
	DeadlinePolicy string     `db:"deadline_policy"`
	ScoringMode    string     `db:"scoring_mode"`
	Tiebreaker     string     `db:"tiebreaker"`
	Timezone       string     `db:"timezone"`
	IsActive       bool       `db:"is_active"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

func (m leagueTableModel) toDomain() league.League {
	return league.League{
		ID:             m.PublicID,
		Name:           m.Name,
		Season:         m.Season,
		DeadlinePolicy: league.DeadlinePolicy(m.DeadlinePolicy),
		ScoringMode:    league.ScoringMode(m.ScoringMode),
		Tiebreaker:     league.Tiebreaker(m.Tiebreaker),
		Timezone:       m.Timezone,
		IsActive:       m.IsActive,
	}
}
