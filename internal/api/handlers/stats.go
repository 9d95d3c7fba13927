package handlers

import (
	"net/http"

	"github.com/mybaseweek/weekstats/internal/domain"
)

type StatsHandler struct {
	svc StatsService
}

func NewStatsHandler(svc StatsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

type StatsResponse struct {
	FID             string          `json:"fid"`
	Days            int             `json:"days"`
	TotalCasts      int             `json:"totalCasts"`
	TotalLikes      int             `json:"totalLikes"`
	TotalRecasts    int             `json:"totalRecasts"`
	TotalReplies    int             `json:"totalReplies"`
	EngagementScore int             `json:"engagementScore"`
	TopCast         *domain.TopPost `json:"topCast"`
	User            *StatsUser      `json:"user"`
}

type StatsUser struct {
	FID         string `json:"fid"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	PfpURL      string `json:"pfpUrl"`
}

// NewStatsResponse shapes WeeklyStats for the JSON API. User is nil when no
// handle was seen.
func NewStatsResponse(s *domain.WeeklyStats) StatsResponse {
	resp := StatsResponse{
		FID:             s.UserID,
		Days:            s.WindowDays,
		TotalCasts:      s.TotalPosts,
		TotalLikes:      s.TotalLikes,
		TotalRecasts:    s.TotalRecasts,
		TotalReplies:    s.TotalReplies,
		EngagementScore: s.EngagementScore,
		TopCast:         s.TopPost,
	}
	if s.AuthorHandle != "" {
		display := s.AuthorDisplayName
		if display == "" {
			display = s.AuthorHandle
		}
		resp.User = &StatsUser{
			FID:         s.UserID,
			Username:    s.AuthorHandle,
			DisplayName: display,
			PfpURL:      s.AuthorAvatarURL,
		}
	}
	return resp
}

// Get serves GET /stats?userId= and the legacy GET /api/my-base-week?fid=.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := q.Get("userId")
	if raw == "" {
		raw = q.Get("fid")
	}

	id, err := userID(raw)
	if err != nil {
		handleStatsError(w, r, err)
		return
	}

	s, err := h.svc.WeeklyStats(r.Context(), id)
	if err != nil {
		handleStatsError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, NewStatsResponse(s))
}
