package httpapi

import (
	"time"

	"github.com/pickemlab/confidence-pool/internal/domain/audit"
	"github.com/pickemlab/confidence-pool/internal/domain/pick"
	"github.com/pickemlab/confidence-pool/internal/domain/standings"
)

type pickDTO struct {
	ID               string `json:"id"`
	EntryID          string `json:"entry_id"`
	GameID           string `json:"game_id"`
	Week             int    `json:"week"`
	Team             string `json:"team"`
	IsFallback       bool   `json:"is_fallback"`
	ConfidencePoints int    `json:"confidence_points"`
	Correctness      string `json:"correctness"`
	PointsEarned     int    `json:"points_earned"`
	IsLocked         bool   `json:"is_locked"`
	LockedAt         string `json:"locked_at,omitempty"`
}

func pickToDTO(p pick.Pick) pickDTO {
	dto := pickDTO{
		ID:               p.ID,
		EntryID:          p.EntryID,
		GameID:           p.GameID,
		Week:             p.Week,
		Team:             p.Team,
		IsFallback:       p.IsFallback(),
		ConfidencePoints: p.ConfidencePoints,
		Correctness:      string(p.Correctness),
		PointsEarned:     p.PointsEarned,
		IsLocked:         p.IsLocked,
	}
	if p.LockedAt != nil {
		dto.LockedAt = p.LockedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

type weeklyWinnerDTO struct {
	LeagueID         string `json:"league_id"`
	Week             int    `json:"week"`
	EntryID          string `json:"entry_id"`
	IsTiedWinner     bool   `json:"is_tied_winner"`
	TiebreakerValue  *int   `json:"tiebreaker_value,omitempty"`
	TiedEntriesCount int    `json:"tied_entries_count"`
	DecidedAt        string `json:"decided_at"`
}

func weeklyWinnerToDTO(w standings.WeeklyWinner) weeklyWinnerDTO {
	return weeklyWinnerDTO{
		LeagueID:         w.LeagueID,
		Week:             w.Week,
		EntryID:          w.EntryID,
		IsTiedWinner:     w.IsTiedWinner,
		TiebreakerValue:  w.TiebreakerValue,
		TiedEntriesCount: w.TiedEntriesCount,
		DecidedAt:        w.DecidedAt.UTC().Format(time.RFC3339),
	}
}

func weeklyWinnersToDTO(winners []standings.WeeklyWinner) []weeklyWinnerDTO {
	items := make([]weeklyWinnerDTO, 0, len(winners))
	for _, w := range winners {
		items = append(items, weeklyWinnerToDTO(w))
	}
	return items
}

type auditSnapshotDTO struct {
	Team             string `json:"team"`
	ConfidencePoints int    `json:"confidence_points"`
	IsLocked         bool   `json:"is_locked"`
}

type auditEntryDTO struct {
	ID                   string            `json:"id"`
	EntryID              string            `json:"entry_id"`
	GameID               string            `json:"game_id,omitempty"`
	Week                 int               `json:"week"`
	Action               string            `json:"action"`
	Actor                string            `json:"actor"`
	Before               *auditSnapshotDTO `json:"before,omitempty"`
	After                *auditSnapshotDTO `json:"after,omitempty"`
	Reason               string            `json:"reason,omitempty"`
	IsCommissionerAction bool              `json:"is_commissioner_action"`
	RecordedAt           string            `json:"recorded_at"`
}

func auditEntryToDTO(e audit.Entry) auditEntryDTO {
	dto := auditEntryDTO{
		ID:                   e.ID,
		EntryID:              e.EntryID,
		GameID:               e.GameID,
		Week:                 e.Week,
		Action:               string(e.Action),
		Actor:                e.Actor,
		Reason:               e.Reason,
		IsCommissionerAction: e.IsCommissionerAction,
		RecordedAt:           e.RecordedAt.UTC().Format(time.RFC3339),
	}
	if e.Before != nil {
		dto.Before = &auditSnapshotDTO{
			Team:             e.Before.Team,
			ConfidencePoints: e.Before.ConfidencePoints,
			IsLocked:         e.Before.IsLocked,
		}
	}
	if e.After != nil {
		dto.After = &auditSnapshotDTO{
			Team:             e.After.Team,
			ConfidencePoints: e.After.ConfidencePoints,
			IsLocked:         e.After.IsLocked,
		}
	}
	return dto
}

func auditEntriesToDTO(entries []audit.Entry) []auditEntryDTO {
	items := make([]auditEntryDTO, 0, len(entries))
	for _, e := range entries {
		items = append(items, auditEntryToDTO(e))
	}
	return items
}
