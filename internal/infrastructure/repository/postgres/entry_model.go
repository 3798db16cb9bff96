package postgres

import (
	"time"

	"github.com/pickemlab/confidence-pool/internal/domain/entry"
)

type entryTableModel struct {
	ID          int64      `db:"id"`
	PublicID    string     `db:"public_id"`
	LeagueID    string     `db:"league_id"`
	Season      int        `db:"season"`
	DisplayName string     `db:"display_name"`
	IsActive    bool       `db:"is_active"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

func (m entryTableModel) toDomain() entry.Entry {
	return entry.Entry{
		ID:          m.PublicID,
		LeagueID:    m.LeagueID,
		Season:      m.Season,
		DisplayName: m.DisplayName,
		IsActive:    m.IsActive,
	}
}
