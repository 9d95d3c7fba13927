package downstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/mybaseweek/weekstats/internal/domain"
)

const (
	DefaultNeynarBaseURL = "https://api.neynar.com"
	DefaultPageSize      = 50

	feedEndpoint = "neynar_feed"
	// a page of 150 casts with full reaction lists stays well below this
	maxFeedBody = 16 << 20
)

// NeynarClient reads a user's casts from the Neynar v2 API.
type NeynarClient struct {
	baseURL  string
	apiKey   string
	pageSize int
	http     *Client
}

func NewNeynarClient(baseURL, apiKey string, pageSize int, hc *Client) *NeynarClient {
	if baseURL == "" {
		baseURL = DefaultNeynarBaseURL
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if hc == nil {
		hc = NewClient(DefaultTimeout)
	}
	return &NeynarClient{
		baseURL:  baseURL,
		apiKey:   apiKey,
		pageSize: pageSize,
		http:     hc,
	}
}

type neynarFeedResponse struct {
	Casts []neynarCast `json:"casts"`
	Next  *struct {
		Cursor string `json:"cursor"`
	} `json:"next"`
}

type neynarCast struct {
	Hash      string          `json:"hash"`
	Text      string          `json:"text"`
	Timestamp string          `json:"timestamp"`
	Author    *neynarAuthor   `json:"author"`
	Reactions json.RawMessage `json:"reactions"`
	Replies   *struct {
		Count *float64 `json:"count"`
	} `json:"replies"`
}

type neynarAuthor struct {
	FID         json.Number `json:"fid"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	PfpURL      string      `json:"pfp_url"`
	Pfp         *struct {
		URL string `json:"url"`
	} `json:"pfp"`
}

// FetchUserCasts returns one page of fid's casts, newest first. An empty
// cursor requests the first page.
func (c *NeynarClient) FetchUserCasts(ctx context.Context, fid, cursor string) (*domain.FeedPage, error) {
	q := url.Values{}
	q.Set("fid", fid)
	q.Set("limit", strconv.Itoa(c.pageSize))
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	u := c.baseURL + "/v2/farcaster/feed/user/casts?" + q.Encode()

	resp, err := c.http.Get(ctx, feedEndpoint, u, map[string]string{
		"x-api-key": c.apiKey,
		"Accept":    "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("neynar feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{Endpoint: feedEndpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBody))
	if err != nil {
		return nil, fmt.Errorf("neynar feed: read body: %w", mapError(err))
	}

	var raw neynarFeedResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("neynar feed: decode: %v: %w", err, domain.ErrMalformedPage)
	}

	return toFeedPage(fid, &raw)
}

// PageFetcher binds the client to a single fid for the reducer.
func (c *NeynarClient) PageFetcher(fid string) domain.PageFetcher {
	return func(ctx context.Context, cursor string) (*domain.FeedPage, error) {
		return c.FetchUserCasts(ctx, fid, cursor)
	}
}

func toFeedPage(fid string, raw *neynarFeedResponse) (*domain.FeedPage, error) {
	page := &domain.FeedPage{
		Posts: make([]domain.Post, 0, len(raw.Casts)),
	}
	if raw.Next != nil {
		page.NextCursor = raw.Next.Cursor
	}

	for i, c := range raw.Casts {
		createdAt, err := time.Parse(time.RFC3339, c.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("neynar feed: cast %d (%s) timestamp %q: %w", i, c.Hash, c.Timestamp, domain.ErrMalformedPage)
		}

		post := domain.Post{
			ID:        c.Hash,
			AuthorID:  fid,
			Text:      c.Text,
			CreatedAt: createdAt,
			Reactions: c.Reactions,
		}
		if c.Replies != nil && c.Replies.Count != nil {
			post.ReplyCount, _ = domain.CountFromFloat(*c.Replies.Count)
		}
		if c.Author != nil {
			post.Author = toAuthor(c.Author)
			if post.Author.FID != "" {
				post.AuthorID = post.Author.FID
			}
		}
		page.Posts = append(page.Posts, post)
	}

	return page, nil
}

func toAuthor(a *neynarAuthor) *domain.Author {
	pfp := a.PfpURL
	if pfp == "" && a.Pfp != nil {
		pfp = a.Pfp.URL
	}
	return &domain.Author{
		FID:         a.FID.String(),
		Username:    a.Username,
		DisplayName: a.DisplayName,
		PfpURL:      pfp,
	}
}
