package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mybaseweek/weekstats/internal/logger"
	"github.com/mybaseweek/weekstats/internal/manifest"
	"github.com/mybaseweek/weekstats/internal/render"
)

type ShareHandler struct {
	appURL     string
	windowDays int
}

func NewShareHandler(appURL string, windowDays int) *ShareHandler {
	return &ShareHandler{appURL: strings.TrimRight(appURL, "/"), windowDays: windowDays}
}

// SharePageURL is the public URL of the share page for userID.
func SharePageURL(appURL, userID string) string {
	return strings.TrimRight(appURL, "/") + "/share/" + url.PathEscape(userID)
}

// OGImageURL is the public URL of the preview image for userID.
func OGImageURL(appURL, userID string) string {
	return strings.TrimRight(appURL, "/") + "/og/" + url.PathEscape(userID)
}

// Page serves GET /share/{userId}: a static document whose meta tags point
// crawlers and Farcaster clients at the OG image.
func (h *ShareHandler) Page(w http.ResponseWriter, r *http.Request) {
	id, err := userID(chi.URLParam(r, "userId"))
	if err != nil {
		handleStatsError(w, r, err)
		return
	}

	image := OGImageURL(h.appURL, id)
	page := render.SharePage{
		UserID:       id,
		Title:        fmt.Sprintf("%s · fid %s", manifest.AppName, id),
		Description:  fmt.Sprintf("Farcaster stats for fid %s over the last %d days.", id, h.windowDays),
		PageURL:      SharePageURL(h.appURL, id),
		ImageURL:     image,
		MiniAppEmbed: manifest.EmbedJSON(h.appURL, image, manifest.ActionLaunchMiniApp),
		FrameEmbed:   manifest.EmbedJSON(h.appURL, image, manifest.ActionLaunchFrame),
	}

	var buf bytes.Buffer
	if err := render.RenderSharePage(&buf, page); err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("share_render_failed")
		sendError(w, r, "internal_error", "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", ogCacheControl)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
