package postgres

import (
	"database/sql"
	"time"

	"github.com/pickemlab/confidence-pool/internal/domain/pick"
)

type pickTableModel struct {
	ID               int64         `db:"id"`
	PublicID         string        `db:"public_id"`
	EntryID          string        `db:"entry_id"`
	GameID           string        `db:"game_id"`
	Week             int           `db:"week"`
	Team             string        `db:"team"`
	ConfidencePoints int           `db:"confidence_points"`
	Correctness      string        `db:"correctness"`
	PointsEarned     int           `db:"points_earned"`
	IsLocked         bool          `db:"is_locked"`
	LockedAt         sql.NullInt64 `db:"locked_at"`
	CreatedAt        time.Time     `db:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at"`
	DeletedAt        *time.Time    `db:"deleted_at"`
}

func (m pickTableModel) toDomain() pick.Pick {
	return pick.Pick{
		ID:               m.PublicID,
		EntryID:          m.EntryID,
		GameID:           m.GameID,
		Week:             m.Week,
		Team:             m.Team,
		ConfidencePoints: m.ConfidencePoints,
		Correctness:      pick.Correctness(m.Correctness),
		PointsEarned:     m.PointsEarned,
		IsLocked:         m.IsLocked,
		LockedAt:         nullInt64ToTimePtr(m.LockedAt),
	}
}

type pickInsertModel struct {
	PublicID         string        `db:"public_id"`
	EntryID          string        `db:"entry_id"`
	GameID           string        `db:"game_id"`
	Week             int           `db:"week"`
	Team             string        `db:"team"`
	ConfidencePoints int           `db:"confidence_points"`
	Correctness      string        `db:"correctness"`
	PointsEarned     int           `db:"points_earned"`
	IsLocked         bool          `db:"is_locked"`
	LockedAt         sql.NullInt64 `db:"locked_at"`
}

func pickToInsertModel(p pick.Pick) pickInsertModel {
	correctness := string(p.Correctness)
	if correctness == "" {
		correctness = string(pick.CorrectnessPending)
	}
	return pickInsertModel{
		PublicID:         p.ID,
		EntryID:          p.EntryID,
		GameID:           p.GameID,
		Week:             p.Week,
		Team:             p.Team,
		ConfidencePoints: p.ConfidencePoints,
		Correctness:      correctness,
		PointsEarned:     p.PointsEarned,
		IsLocked:         p.IsLocked,
		LockedAt:         timePtrToNullInt64(p.LockedAt),
	}
}
