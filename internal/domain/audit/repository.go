package audit

import "context"

type Repository interface {
	Append(ctx context.Context, e Entry) error
	ListByEntryWeek(ctx context.Context, entryID string, week int) ([]Entry, error)
	ListByLeagueWeek(ctx context.Context, leagueID string, week int, filter Filter) ([]Entry, error)
}
