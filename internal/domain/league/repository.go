package league

import "context"

// Repository exposes league read operations.
type Repository interface {
	GetByID(ctx context.Context, leagueID string) (League, bool, error)
	ListActive(ctx context.Context) ([]League, error)
}
