package stats

import (
	"context"
	"errors"
	"time"

	"github.com/mybaseweek/weekstats/internal/domain"
	"github.com/mybaseweek/weekstats/internal/logger"
	"github.com/mybaseweek/weekstats/internal/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var pagesFetched = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "weekstats",
		Name:      "stats_pages_fetched",
		Help:      "Feed pages fetched per weekly stats computation.",
		Buckets:   []float64{1, 2, 3, 5, 10, 20, 50, 100, 200},
	},
	[]string{"outcome"},
)

// FeedClient is the upstream the service reads posts from.
type FeedClient interface {
	FetchUserCasts(ctx context.Context, fid, cursor string) (*domain.FeedPage, error)
}

type Service struct {
	feed       FeedClient
	reducer    *Reducer
	windowDays int
	timeout    time.Duration
}

// NewService binds a feed client to a reducer. timeout bounds one whole walk;
// zero leaves the caller's deadline in charge.
func NewService(feed FeedClient, reducer *Reducer, windowDays int, timeout time.Duration) *Service {
	if reducer == nil {
		reducer = &Reducer{}
	}
	if windowDays == 0 {
		windowDays = domain.DefaultWindowDays
	}
	return &Service{
		feed:       feed,
		reducer:    reducer,
		windowDays: windowDays,
		timeout:    timeout,
	}
}

func (s *Service) WindowDays() int {
	return s.windowDays
}

// WeeklyStats computes the trailing-window stats for userID.
func (s *Service) WeeklyStats(ctx context.Context, userID string) (*domain.WeeklyStats, error) {
	if userID == "" {
		return nil, domain.ErrMissingParameter
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ctx, span := tracing.StartSpan(ctx, "stats.WeeklyStats")
	defer span.End()
	span.SetAttributes(
		attribute.String("farcaster.fid", userID),
		attribute.Int("stats.window_days", s.windowDays),
	)

	pages := 0
	fetch := func(ctx context.Context, cursor string) (*domain.FeedPage, error) {
		pages++
		return s.feed.FetchUserCasts(ctx, userID, cursor)
	}

	start := time.Now()
	out, err := s.reducer.Compute(ctx, userID, s.windowDays, fetch)
	span.SetAttributes(attribute.Int("stats.pages", pages))

	log := logger.Ctx(ctx)
	if err != nil {
		pagesFetched.WithLabelValues(outcome(err)).Observe(float64(pages))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn().
			Err(err).
			Str("fid", userID).
			Int("pages", pages).
			Dur("duration", time.Since(start)).
			Msg("weekly_stats_failed")
		return nil, err
	}

	pagesFetched.WithLabelValues("ok").Observe(float64(pages))
	span.SetAttributes(
		attribute.Int("stats.total_posts", out.TotalPosts),
		attribute.Int("stats.engagement_score", out.EngagementScore),
	)
	log.Info().
		Str("fid", userID).
		Int("pages", pages).
		Int("posts", out.TotalPosts).
		Int("engagement_score", out.EngagementScore).
		Dur("duration", time.Since(start)).
		Msg("weekly_stats_computed")

	return out, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, domain.ErrFeedTooLarge):
		return "feed_too_large"
	case errors.Is(err, domain.ErrMalformedPage):
		return "malformed"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "error"
	}
}
