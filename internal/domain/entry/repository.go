package entry

import "context"

type Repository interface {
	GetByID(ctx context.Context, entryID string) (Entry, bool, error)
	ListActiveByLeague(ctx context.Context, leagueID string) ([]Entry, error)
}
