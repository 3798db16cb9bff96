package postgres

import (
	"database/sql"

	"github.com/pickemlab/confidence-pool/internal/domain/audit"
)

type auditTableModel struct {
	ID                     int64          `db:"id"`
	PublicID               string         `db:"public_id"`
	EntryID                string         `db:"entry_id"`
	GameID                 string         `db:"game_id"`
	Week                   int            `db:"week"`
	Action                 string         `db:"action"`
	Actor                  string         `db:"actor"`
	BeforeTeam             sql.NullString `db:"before_team"`
	BeforeConfidencePoints sql.NullInt64  `db:"before_confidence_points"`
	BeforeIsLocked         sql.NullBool   `db:"before_is_locked"`
	AfterTeam              sql.NullString `db:"after_team"`
	AfterConfidencePoints  sql.NullInt64  `db:"after_confidence_points"`
	AfterIsLocked          sql.NullBool   `db:"after_is_locked"`
	Reason                 sql.NullString `db:"reason"`
	IsCommissionerAction   bool           `db:"is_commissioner_action"`
	RecordedAt             int64          `db:"recorded_at"`
}

func (m auditTableModel) toDomain() audit.Entry {
	e := audit.Entry{
		ID:                   m.PublicID,
		EntryID:              m.EntryID,
		GameID:               m.GameID,
		Week:                 m.Week,
		Action:               audit.Action(m.Action),
		Actor:                m.Actor,
		Reason:               nullStringToString(m.Reason),
		IsCommissionerAction: m.IsCommissionerAction,
		RecordedAt:           unixToTime(m.RecordedAt),
	}
	if m.BeforeTeam.Valid {
		e.Before = &audit.Snapshot{
			Team:             m.BeforeTeam.String,
			ConfidencePoints: int(m.BeforeConfidencePoints.Int64),
			IsLocked:         m.BeforeIsLocked.Bool,
		}
	}
	if m.AfterTeam.Valid {
		e.After = &audit.Snapshot{
			Team:             m.AfterTeam.String,
			ConfidencePoints: int(m.AfterConfidencePoints.Int64),
			IsLocked:         m.AfterIsLocked.Bool,
		}
	}
	return e
}

type auditInsertModel struct {
	PublicID               string         `db:"public_id"`
	EntryID                string         `db:"entry_id"`
	GameID                 string         `db:"game_id"`
	Week                   int            `db:"week"`
	Action                 string         `db:"action"`
	Actor                  string         `db:"actor"`
	BeforeTeam             sql.NullString `db:"before_team"`
	BeforeConfidencePoints sql.NullInt64  `db:"before_confidence_points"`
	BeforeIsLocked         sql.NullBool   `db:"before_is_locked"`
	AfterTeam              sql.NullString `db:"after_team"`
	AfterConfidencePoints  sql.NullInt64  `db:"after_confidence_points"`
	AfterIsLocked          sql.NullBool   `db:"after_is_locked"`
	Reason                 sql.NullString `db:"reason"`
	IsCommissionerAction   bool           `db:"is_commissioner_action"`
	RecordedAt             int64          `db:"recorded_at"`
}

func auditToInsertModel(e audit.Entry) auditInsertModel {
	m := auditInsertModel{
		PublicID:             e.ID,
		EntryID:              e.EntryID,
		GameID:               e.GameID,
		Week:                 e.Week,
		Action:               string(e.Action),
		Actor:                e.Actor,
		Reason:               stringToNullString(e.Reason),
		IsCommissionerAction: e.IsCommissionerAction,
		RecordedAt:           timeToUnix(e.RecordedAt),
	}
	if e.Before != nil {
		m.BeforeTeam = sql.NullString{String: e.Before.Team, Valid: true}
		m.BeforeConfidencePoints = sql.NullInt64{Int64: int64(e.Before.ConfidencePoints), Valid: true}
		m.BeforeIsLocked = sql.NullBool{Bool: e.Before.IsLocked, Valid: true}
	}
	if e.After != nil {
		m.AfterTeam = sql.NullString{String: e.After.Team, Valid: true}
		m.AfterConfidencePoints = sql.NullInt64{Int64: int64(e.After.ConfidencePoints), Valid: true}
		m.AfterIsLocked = sql.NullBool{Bool: e.After.IsLocked, Valid: true}
	}
	return m
}
