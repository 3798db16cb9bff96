package pick

import "time"

// Correctness is the three-state outcome of a pick. Pending means the result
// cannot be judged yet; it is never collapsed into a boolean.
type Correctness string

const (
	CorrectnessPending   Correctness = "pending"
	CorrectnessCorrect   Correctness = "correct"
	CorrectnessIncorrect Correctness = "incorrect"
)

// NoSelection is the sentinel team recorded on a fallback pick created for
// an entry that missed the deadline.
const NoSelection = "NO_PICK"

// Pick is one entry's weighted prediction for one game.
type Pick struct {
	ID               string
	EntryID          string
	GameID           string
	Week             int
	Team             string
	ConfidencePoints int
	Correctness      Correctness
	PointsEarned     int
	IsLocked         bool
	LockedAt         *time.Time
}

// IsFallback reports whether this pick was auto-created at lock time.
func (p Pick) IsFallback() bool {
	return p.Team == NoSelection
}

// Evaluation is the recomputed correctness state for one pick.
type Evaluation struct {
	PickID       string
	Correctness  Correctness
	PointsEarned int
}

// LockOutcome describes what one lock application actually changed.
// GameLocked is false when a previous tick already locked the game, which
// suppresses duplicate lock events.
type LockOutcome struct {
	GameLocked bool
	EntryIDs   []string
}

// Shift moves one unlocked pick to a higher confidence value to vacate the
// slot a fallback pick will take.
type Shift struct {
	PickID     string
	FromPoints int
	ToPoints   int
}

// FallbackPlan is the full set of mutations that insert one missing pick
// while keeping the entry's week a strict 1..N permutation. Applied in a
// single transaction.
type FallbackPlan struct {
	PickID         string
	EntryID        string
	GameID         string
	Week           int
	AssignedPoints int
	Shifts         []Shift
	LockedAt       time.Time
}
