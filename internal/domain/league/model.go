package league

// DeadlinePolicy controls when a week's picks lock.
type DeadlinePolicy string

const (
	// DeadlinePerGame locks each game independently at its own kickoff.
	DeadlinePerGame DeadlinePolicy = "per_game"
	// DeadlineLeagueWideFirstGame locks every game of the week once the
	// earliest kickoff of that week has passed.
	DeadlineLeagueWideFirstGame DeadlinePolicy = "league_wide_first_game"
)

// ScoringMode selects how pick correctness is judged.
type ScoringMode string

const (
	ModeStraightUp    ScoringMode = "straight_up"
	ModeAgainstSpread ScoringMode = "against_spread"
)

// Tiebreaker selects how tied weekly totals are broken.
type Tiebreaker string

const (
	TiebreakerNone     Tiebreaker = "none"
	TiebreakerMNFTotal Tiebreaker = "mnf_total"
)

// League is a confidence pool for one season. Timezone is display metadata
// for consumers of the API; the engine itself works in absolute time.
type League struct {
	ID             string
	Name           string
	Season         int
	DeadlinePolicy DeadlinePolicy
	ScoringMode    ScoringMode
	Tiebreaker     Tiebreaker
	Timezone       string
	IsActive       bool
}

func (p DeadlinePolicy) Valid() bool {
	switch p {
	case DeadlinePerGame, DeadlineLeagueWideFirstGame:
		return true
	default:
		return false
	}
}

func (m ScoringMode) Valid() bool {
	switch m {
	case ModeStraightUp, ModeAgainstSpread:
		return true
	default:
		return false
	}
}
