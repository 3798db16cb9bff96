package game

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a game.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusPostponed  Status = "postponed"
	StatusCancelled  Status = "cancelled"
)

func NormalizeStatus(value string) Status {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	if status == "" {
		return StatusScheduled
	}
	return status
}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusPostponed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Line is a published point spread. Spread is the number of points the
// favored team gives up; always positive when a favorite is set.
type Line struct {
	Spread   float64
	Favorite string
}

// Game is one scheduled matchup within a league week. FallbackDoneAt marks
// that every entry missing a pick at lock time has received its fallback;
// until it is set the scheduler keeps retrying the allocation.
type Game struct {
	ID             string
	LeagueID       string
	Season         int
	Week           int
	HomeTeam       string
	AwayTeam       string
	KickoffAt      time.Time
	Status         Status
	Line           *Line
	LockedAt       *time.Time
	FallbackDoneAt *time.Time
}

func (g Game) IsLocked() bool {
	return g.LockedAt != nil
}

func (g Game) HasLine() bool {
	return g.Line != nil && g.Line.Favorite != ""
}

// Result is the authoritative score for a game. WinnerTeam is empty when no
// winner has been determined, including a true tie on a final game.
type Result struct {
	GameID     string
	HomeScore  int
	AwayScore  int
	WinnerTeam string
	IsFinal    bool
}

func (r Result) CombinedTotal() int {
	return r.HomeScore + r.AwayScore
}

// Leader returns the team currently ahead on raw score, or empty on a tie.
func (r Result) Leader(g Game) string {
	switch {
	case r.HomeScore > r.AwayScore:
		return g.HomeTeam
	case r.AwayScore > r.HomeScore:
		return g.AwayTeam
	default:
		return ""
	}
}

// SpreadLeader returns the team ahead against the published line and whether
// the margin lands exactly on the line (a push). Without a line it falls back
// to the raw leader.
func SpreadLeader(g Game, r Result) (string, bool) {
	if !g.HasLine() {
		return r.Leader(g), false
	}

	margin := float64(r.HomeScore - r.AwayScore)
	if g.Line.Favorite == g.HomeTeam {
		margin -= g.Line.Spread
	} else {
		margin += g.Line.Spread
	}

	switch {
	case margin > 0:
		return g.HomeTeam, false
	case margin < 0:
		return g.AwayTeam, false
	default:
		return "", true
	}
}
