package audit

import "time"

// Action classifies a pick mutation.
type Action string

const (
	ActionCreate             Action = "create"
	ActionUpdate             Action = "update"
	ActionLock               Action = "lock"
	ActionFallbackAssign     Action = "fallback_assign"
	ActionCommissionerAssign Action = "commissioner_assign"
	ActionCommissionerAdjust Action = "commissioner_adjust"
	ActionUnlockOverride     Action = "unlock_override"
)

// Snapshot captures the pick fields an action can change.
type Snapshot struct {
	Team             string
	ConfidencePoints int
	IsLocked         bool
}

// Entry is one immutable audit record. Rows are append-only and never
// mutated or deleted.
type Entry struct {
	ID                   string
	EntryID              string
	GameID               string
	Week                 int
	Action               Action
	Actor                string
	Before               *Snapshot
	After                *Snapshot
	Reason               string
	IsCommissionerAction bool
	RecordedAt           time.Time
}

// Filter narrows audit queries for commissioner review.
type Filter struct {
	Action           Action
	CommissionerOnly bool
}
