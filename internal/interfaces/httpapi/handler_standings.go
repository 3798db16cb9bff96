package httpapi

import (
	"net/http"
)

func (h *Handler) ResolveWeek(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolveWeek")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	week, err := weekPathValue(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	winners, err := h.winnerService.ResolveWeek(ctx, leagueID, week)
	if err != nil {
		h.logger.WarnContext(ctx, "resolve week failed", "league_id", leagueID, "week", week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, weeklyWinnersToDTO(winners))
}

func (h *Handler) GetWeekStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWeekStandings")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	week, err := weekPathValue(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rows, err := h.reportingService.WeekStandings(ctx, leagueID, week)
	if err != nil {
		h.logger.WarnContext(ctx, "week standings failed", "league_id", leagueID, "week", week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rows)
}

func (h *Handler) GetWeekWinners(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWeekWinners")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	week, err := weekPathValue(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	winners, err := h.reportingService.WeekWinners(ctx, leagueID, week)
	if err != nil {
		h.logger.WarnContext(ctx, "week winners failed", "league_id", leagueID, "week", week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, weeklyWinnersToDTO(winners))
}

func (h *Handler) GetSeasonLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSeasonLeaderboard")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	rows, err := h.reportingService.SeasonLeaderboard(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "season leaderboard failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rows)
}

func (h *Handler) GetEntryWeekDetail(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetEntryWeekDetail")
	defer span.End()

	entryID := r.PathValue("entryID")
	week, err := weekPathValue(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	detail, err := h.reportingService.EntryWeekDetail(ctx, entryID, week)
	if err != nil {
		h.logger.WarnContext(ctx, "entry week detail failed", "entry_id", entryID, "week", week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, detail)
}
