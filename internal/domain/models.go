package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Engagement weights shared by the per-post score and the weekly aggregate.
const (
	LikeWeight   = 1
	RecastWeight = 3
	ReplyWeight  = 10
)

// DefaultWindowDays is the trailing window the service reports on.
const DefaultWindowDays = 7

type Author struct {
	FID         string `json:"fid"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	PfpURL      string `json:"pfp_url"`
}

// Post is a single cast as returned by the feed provider. Reactions are kept
// raw because the provider reports them in several shapes; see NormalizeReactions.
type Post struct {
	ID         string          `json:"id"`
	AuthorID   string          `json:"author_id"`
	Text       string          `json:"text"`
	CreatedAt  time.Time       `json:"created_at"`
	Reactions  json.RawMessage `json:"reactions,omitempty"`
	ReplyCount int             `json:"reply_count"`
	Author     *Author         `json:"author,omitempty"`
}

// FeedPage is one page of a user's feed, newest post first.
// An empty NextCursor means the feed has no further pages.
type FeedPage struct {
	Posts      []Post `json:"posts"`
	NextCursor string `json:"next_cursor"`
}

// PageFetcher returns the page that starts at cursor. The first page is
// requested with an empty cursor.
type PageFetcher func(ctx context.Context, cursor string) (*FeedPage, error)

type TopPost struct {
	ID        string    `json:"hash"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"timestamp"`
	Likes     int       `json:"likes"`
	Recasts   int       `json:"recasts"`
	Replies   int       `json:"replies"`
	Score     int       `json:"score"`
}

type WeeklyStats struct {
	UserID            string
	WindowDays        int
	TotalPosts        int
	TotalLikes        int
	TotalRecasts      int
	TotalReplies      int
	EngagementScore   int
	TopPost           *TopPost
	AuthorDisplayName string
	AuthorHandle      string
	AuthorAvatarURL   string
}

// Score weighs a single post's reactions.
func Score(likes, recasts, replies int) int {
	return likes*LikeWeight + recasts*RecastWeight + replies*ReplyWeight
}

// APIError is the error body returned by every JSON endpoint.
type APIError struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}
