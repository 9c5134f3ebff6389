package handlers

import (
	"net/http"

	"server/internal/sqlinline"
)

type statsSummaryResponse struct {
	Queued    int64 `json:"queued"`
	Running   int64 `json:"running"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Last24h   int64 `json:"last_24h"`
}

// StatsSummary reports the caller's job counts per lifecycle state.
func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var resp statsSummaryResponse
	row := a.SQL.QueryRow(r.Context(), sqlinline.QStatsSummary, userID)
	if err := row.Scan(&resp.Queued, &resp.Running, &resp.Succeeded, &resp.Failed, &resp.Last24h); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("stats: summary query failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	a.json(w, http.StatusOK, resp)
}
