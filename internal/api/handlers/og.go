package handlers

import (
	"bytes"
	"context"
	"image"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mybaseweek/weekstats/internal/logger"
	"github.com/mybaseweek/weekstats/internal/render"
)

// AvatarFetcher downloads a profile picture.
type AvatarFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

const (
	ogCacheControl = "public, max-age=300"
	avatarTimeout  = 3 * time.Second
)

type OGHandler struct {
	svc     StatsService
	avatars AvatarFetcher
}

func NewOGHandler(svc StatsService, avatars AvatarFetcher) *OGHandler {
	return &OGHandler{svc: svc, avatars: avatars}
}

// Image serves GET /og/{userId}. Any stats or avatar failure degrades to the
// placeholder card; only a rendering failure is an error.
func (h *OGHandler) Image(w http.ResponseWriter, r *http.Request) {
	id, err := userID(chi.URLParam(r, "userId"))
	if err != nil {
		handleStatsError(w, r, err)
		return
	}

	ctx := r.Context()
	log := logger.Ctx(ctx)

	s, err := h.svc.WeeklyStats(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("fid", id).Msg("og_stats_degraded")
		s = nil
	}

	card := render.NewCard(id, h.svc.WindowDays(), s)
	if s != nil && s.AuthorAvatarURL != "" && h.avatars != nil {
		card.Avatar = h.loadAvatar(ctx, s.AuthorAvatarURL)
	}

	var buf bytes.Buffer
	if err := render.RenderOG(&buf, card); err != nil {
		log.Error().Err(err).Str("fid", id).Msg("og_render_failed")
		sendError(w, r, "internal_error", "failed to render image", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", ogCacheControl)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// loadAvatar returns nil on any failure so the card falls back to the initial.
func (h *OGHandler) loadAvatar(ctx context.Context, url string) image.Image {
	ctx, cancel := context.WithTimeout(ctx, avatarTimeout)
	defer cancel()

	log := logger.Ctx(ctx)
	data, err := h.avatars.Fetch(ctx, url)
	if err != nil {
		log.Debug().Err(err).Str("url", url).Msg("og_avatar_fetch_failed")
		return nil
	}
	img, err := render.DecodeImage(data)
	if err != nil {
		log.Debug().Err(err).Str("url", url).Msg("og_avatar_decode_failed")
		return nil
	}
	return img
}
