package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pickemlab/confidence-pool/internal/domain/audit"
	qb "github.com/pickemlab/confidence-pool/internal/platform/querybuilder"
)

// AuditRepository stores the append-only pick mutation log. Rows are never
// updated or deleted.
type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, e audit.Entry) error {
	query, args, err := qb.InsertModel("pick_audit_log", auditToInsertModel(e), "")
	if err != nil {
		return fmt.Errorf("build insert audit entry query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListByEntryWeek(ctx context.Context, entryID string, week int) ([]audit.Entry, error) {
	query, args, err := qb.Select("*").From("pick_audit_log").
		Where(
			qb.Eq("entry_id", entryID),
			qb.Eq("week", week),
		).
		OrderBy("recorded_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list audit by entry week query: %w", err)
	}

	var rows []auditTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list audit by entry week: %w", err)
	}

	out := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *AuditRepository) ListByLeagueWeek(ctx context.Context, leagueID string, week int, filter audit.Filter) ([]audit.Entry, error) {
	conditions := []qb.Condition{
		qb.Eq("e.league_id", leagueID),
		qb.Eq("a.week", week),
	}
	if filter.Action != "" {
		conditions = append(conditions, qb.Eq("a.action", string(filter.Action)))
	}
	if filter.CommissionerOnly {
		conditions = append(conditions, qb.Eq("a.is_commissioner_action", true))
	}

	query, args, err := qb.Select("a.*").
		From("pick_audit_log a JOIN entries e ON e.public_id = a.entry_id").
		Where(conditions...).
		OrderBy("a.recorded_at", "a.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list audit by league week query: %w", err)
	}

	var rows []auditTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list audit by league week: %w", err)
	}

	out := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
