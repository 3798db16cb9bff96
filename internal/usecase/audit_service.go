package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/pickemlab/confidence-pool/internal/domain/audit"
	"github.com/pickemlab/confidence-pool/internal/platform/id"
	"github.com/pickemlab/confidence-pool/internal/platform/logging"
)

// AuditRecorder appends pick-mutation records best-effort: a failed audit
// write is logged and swallowed so it can never abort or roll back the
// business mutation it describes.
type AuditRecorder struct {
	repo   audit.Repository
	ids    id.Generator
	logger *logging.Logger
	now    func() time.Time
}

func NewAuditRecorder(repo audit.Repository, ids id.Generator, logger *logging.Logger) *AuditRecorder {
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AuditRecorder{
		repo:   repo,
		ids:    ids,
		logger: logger,
		now:    time.Now,
	}
}

func (r *AuditRecorder) Record(ctx context.Context, e audit.Entry) {
	if r == nil || r.repo == nil {
		return
	}

	if e.ID == "" {
		newID, err := r.ids.NewID()
		if err != nil {
			r.logger.WarnContext(ctx, "audit id generation failed",
				"entry_id", e.EntryID, "action", e.Action, "error", err)
			return
		}
		e.ID = newID
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = r.now().UTC()
	}

	if err := r.repo.Append(ctx, e); err != nil {
		r.logger.WarnContext(ctx, "audit append failed",
			"entry_id", e.EntryID, "game_id", e.GameID, "action", e.Action, "error", err)
	}
}

func (r *AuditRecorder) ListByEntryWeek(ctx context.Context, entryID string, week int) ([]audit.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuditRecorder.ListByEntryWeek")
	defer span.End()

	if entryID == "" || week <= 0 {
		return nil, fmt.Errorf("%w: entry id and week are required", ErrInvalidInput)
	}
	entries, err := r.repo.ListByEntryWeek(ctx, entryID, week)
	if err != nil {
		return nil, fmt.Errorf("list audit by entry week: %w", err)
	}
	return entries, nil
}

func (r *AuditRecorder) ListByLeagueWeek(ctx context.Context, leagueID string, week int, filter audit.Filter) ([]audit.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AuditRecorder.ListByLeagueWeek")
	defer span.End()

	if leagueID == "" || week <= 0 {
		return nil, fmt.Errorf("%w: league id and week are required", ErrInvalidInput)
	}
	entries, err := r.repo.ListByLeagueWeek(ctx, leagueID, week, filter)
	if err != nil {
		return nil, fmt.Errorf("list audit by league week: %w", err)
	}
	return entries, nil
}
