package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pickemlab/confidence-pool/internal/domain/audit"
	"github.com/pickemlab/confidence-pool/internal/usecase"
)

func (h *Handler) ListEntryAudit(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListEntryAudit")
	defer span.End()

	entryID := r.PathValue("entryID")
	week, err := weekPathValue(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	entries, err := h.auditRecorder.ListByEntryWeek(ctx, entryID, week)
	if err != nil {
		h.logger.WarnContext(ctx, "entry audit failed", "entry_id", entryID, "week", week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, auditEntriesToDTO(entries))
}

func (h *Handler) ListLeagueAudit(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagueAudit")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	week, err := weekPathValue(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	filter := audit.Filter{
		Action: audit.Action(strings.TrimSpace(r.URL.Query().Get("action"))),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("commissioner")); raw != "" {
		commissionerOnly, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			writeError(ctx, w, fmt.Errorf("%w: commissioner must be a boolean, got %q", usecase.ErrInvalidInput, raw))
			return
		}
		filter.CommissionerOnly = commissionerOnly
	}

	entries, err := h.auditRecorder.ListByLeagueWeek(ctx, leagueID, week, filter)
	if err != nil {
		h.logger.WarnContext(ctx, "league audit failed", "league_id", leagueID, "week", week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, auditEntriesToDTO(entries))
}
