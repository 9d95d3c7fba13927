package handlers

import (
	"bytes"
	"net/http"

	"github.com/mybaseweek/weekstats/internal/logger"
	"github.com/mybaseweek/weekstats/internal/render"
)

type HomeHandler struct {
	svc        StatsService
	appURL     string
	defaultFID string
}

func NewHomeHandler(svc StatsService, appURL, defaultFID string) *HomeHandler {
	return &HomeHandler{svc: svc, appURL: appURL, defaultFID: defaultFID}
}

// Page serves GET /?userId=: the stats card with a share button. Without a
// userId the configured default fid is shown.
func (h *HomeHandler) Page(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := q.Get("userId")
	if raw == "" {
		raw = q.Get("fid")
	}
	if raw == "" {
		raw = h.defaultFID
	}

	page := render.HomePage{Days: h.svc.WindowDays()}
	status := http.StatusOK

	id, err := userID(raw)
	if err == nil {
		page.UserID = id
		page.Stats, err = h.svc.WeeklyStats(r.Context(), id)
	}
	if err != nil {
		m := mapError(err)
		if m.status >= http.StatusInternalServerError {
			logger.Ctx(r.Context()).Warn().Err(err).Str("fid", raw).Msg("home_stats_failed")
		}
		status = m.status
		if status == http.StatusGatewayTimeout {
			status = http.StatusBadGateway
		}
		page.Stats = nil
		page.Error = m.message
	} else {
		page.Days = page.Stats.WindowDays
		page.ComposeURL = render.ComposeURL(render.ShareText(page.Stats), SharePageURL(h.appURL, id))
	}

	var buf bytes.Buffer
	if err := render.RenderHomePage(&buf, page); err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("home_render_failed")
		sendError(w, r, "internal_error", "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
