package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPoolRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/leagues/{leagueID}/weeks/{week}/resolve", handler.ResolveWeek)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/weeks/{week}/standings", handler.GetWeekStandings)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/weeks/{week}/winners", handler.GetWeekWinners)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/weeks/{week}/audit", handler.ListLeagueAudit)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/standings/season", handler.GetSeasonLeaderboard)
	mux.HandleFunc("GET /v1/entries/{entryID}/weeks/{week}", handler.GetEntryWeekDetail)
	mux.HandleFunc("GET /v1/entries/{entryID}/weeks/{week}/audit", handler.ListEntryAudit)

	mux.HandleFunc("POST /v1/picks/commissioner/assign", handler.CommissionerAssignPick)
	mux.HandleFunc("POST /v1/picks/commissioner/adjust-weight", handler.CommissionerAdjustWeight)
	mux.HandleFunc("POST /v1/picks/commissioner/unlock", handler.CommissionerUnlockPick)
}

func registerInternalRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /internal/results", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.IngestResults)))
	mux.Handle("POST /internal/lock-tick", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunLockTick)))
}
