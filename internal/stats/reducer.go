package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/mybaseweek/weekstats/internal/domain"
)

// DefaultMaxPages bounds a single walk against a misbehaving upstream.
const DefaultMaxPages = 200

// Reducer walks a reverse-chronological feed and folds the posts that fall
// inside the window into WeeklyStats. A Reducer holds no per-call state and
// is safe for concurrent use.
type Reducer struct {
	// MaxPages caps the number of pages fetched per call. Zero means DefaultMaxPages.
	MaxPages int
	// Now is the clock used to anchor the window. Nil means time.Now.
	Now func() time.Time
}

func NewReducer(maxPages int) *Reducer {
	return &Reducer{MaxPages: maxPages}
}

// ComputeWeeklyStats runs a default Reducer.
func ComputeWeeklyStats(ctx context.Context, userID string, windowDays int, fetch domain.PageFetcher) (*domain.WeeklyStats, error) {
	return (&Reducer{}).Compute(ctx, userID, windowDays, fetch)
}

// Compute fetches pages through fetch until the window boundary, an empty
// page or a missing cursor, and reduces them. Pages must be newest first and
// contiguous across cursors: the first post older than the window ends the
// walk. Errors returned by fetch are passed through unchanged.
func (r *Reducer) Compute(ctx context.Context, userID string, windowDays int, fetch domain.PageFetcher) (*domain.WeeklyStats, error) {
	if userID == "" {
		return nil, domain.ErrMissingParameter
	}
	if windowDays < 1 {
		return nil, fmt.Errorf("%w: %d days", domain.ErrInvalidWindow, windowDays)
	}

	now := r.now()
	since := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	out := &domain.WeeklyStats{
		UserID:     userID,
		WindowDays: windowDays,
	}

	var (
		cursor    string
		bestScore int
	)

	for page := 0; ; page++ {
		if page >= r.maxPages() {
			return nil, fmt.Errorf("%w: window not exhausted after %d pages", domain.ErrFeedTooLarge, r.maxPages())
		}

		p, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}
		if p == nil || len(p.Posts) == 0 {
			break
		}

		if page == 0 {
			captureAuthor(out, p.Posts[0])
		}

		exhausted := false
		for _, post := range p.Posts {
			if post.CreatedAt.Before(since) {
				exhausted = true
				break
			}
			// clock skew: a post stamped after now is outside the window but
			// does not end the walk
			if post.CreatedAt.After(now) {
				continue
			}

			likes, recasts := domain.NormalizeReactions(post.Reactions)
			replies := max(post.ReplyCount, 0)

			out.TotalPosts++
			out.TotalLikes += likes
			out.TotalRecasts += recasts
			out.TotalReplies += replies

			score := domain.Score(likes, recasts, replies)
			if out.TopPost == nil || score > bestScore {
				bestScore = score
				out.TopPost = &domain.TopPost{
					ID:        post.ID,
					Text:      post.Text,
					CreatedAt: post.CreatedAt,
					Likes:     likes,
					Recasts:   recasts,
					Replies:   replies,
					Score:     score,
				}
			}
		}

		if exhausted || p.NextCursor == "" {
			break
		}
		cursor = p.NextCursor
	}

	out.EngagementScore = out.TotalLikes*domain.LikeWeight +
		out.TotalRecasts*domain.RecastWeight +
		out.TotalReplies*domain.ReplyWeight

	return out, nil
}

// captureAuthor copies profile fields from the feed head. All posts in a
// user feed are assumed to share one author.
func captureAuthor(out *domain.WeeklyStats, first domain.Post) {
	if first.Author == nil {
		return
	}
	out.AuthorDisplayName = first.Author.DisplayName
	out.AuthorHandle = first.Author.Username
	out.AuthorAvatarURL = first.Author.PfpURL
}

func (r *Reducer) maxPages() int {
	if r.MaxPages <= 0 {
		return DefaultMaxPages
	}
	return r.MaxPages
}

func (r *Reducer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
