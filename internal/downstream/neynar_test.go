package downstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mybaseweek/weekstats/internal/domain"
	"github.com/mybaseweek/weekstats/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const castsPage = `{
  "casts": [
    {
      "hash": "0xabc",
      "text": "gm",
      "timestamp": "2026-03-09T10:00:00.000Z",
      "author": {"fid": 42, "username": "alice", "display_name": "Alice", "pfp_url": "https://img.example/a.png"},
      "reactions": {"likes_count": 3, "recasts_count": 1},
      "replies": {"count": 2}
    },
    {
      "hash": "0xdef",
      "text": "second",
      "timestamp": "2026-03-08T09:30:00Z",
      "author": {"fid": 42, "username": "alice", "pfp": {"url": "https://img.example/b.png"}},
      "reactions": {"likes": [{"fid": 1}, {"fid": 2}]}
    }
  ],
  "next": {"cursor": "c2"}
}`

func TestFetchUserCasts_DecodesPage(t *testing.T) {
	var gotPath, gotKey, gotFID, gotLimit, gotCursor, gotReqID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotFID = r.URL.Query().Get("fid")
		gotLimit = r.URL.Query().Get("limit")
		gotCursor = r.URL.Query().Get("cursor")
		gotReqID = r.Header.Get(middleware.HeaderXRequestID)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(castsPage))
	}))
	defer server.Close()

	client := NewNeynarClient(server.URL, "secret", 50, NewClient(time.Second))
	ctx := middleware.SetRequestIDForTest(context.Background(), "req-1")

	page, err := client.FetchUserCasts(ctx, "42", "c1")
	require.NoError(t, err)

	assert.Equal(t, "/v2/farcaster/feed/user/casts", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "42", gotFID)
	assert.Equal(t, "50", gotLimit)
	assert.Equal(t, "c1", gotCursor)
	assert.Equal(t, "req-1", gotReqID)

	require.Len(t, page.Posts, 2)
	assert.Equal(t, "c2", page.NextCursor)

	first := page.Posts[0]
	assert.Equal(t, "0xabc", first.ID)
	assert.Equal(t, "42", first.AuthorID)
	assert.Equal(t, time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC), first.CreatedAt.UTC())
	assert.Equal(t, 2, first.ReplyCount)
	require.NotNil(t, first.Author)
	assert.Equal(t, "Alice", first.Author.DisplayName)
	assert.Equal(t, "https://img.example/a.png", first.Author.PfpURL)

	likes, recasts := domain.NormalizeReactions(first.Reactions)
	assert.Equal(t, 3, likes)
	assert.Equal(t, 1, recasts)

	second := page.Posts[1]
	assert.Equal(t, 0, second.ReplyCount)
	assert.Equal(t, "https://img.example/b.png", second.Author.PfpURL)
	likes, _ = domain.NormalizeReactions(second.Reactions)
	assert.Equal(t, 2, likes)
}

func TestFetchUserCasts_FirstPageHasNoCursor(t *testing.T) {
	var hasCursor bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasCursor = r.URL.Query()["cursor"]
		w.Write([]byte(`{"casts": []}`))
	}))
	defer server.Close()

	client := NewNeynarClient(server.URL, "k", 0, nil)
	page, err := client.FetchUserCasts(context.Background(), "1", "")
	require.NoError(t, err)

	assert.False(t, hasCursor)
	assert.Empty(t, page.Posts)
	assert.Empty(t, page.NextCursor)
}

func TestFetchUserCasts_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"slow down"}`))
	}))
	defer server.Close()

	client := NewNeynarClient(server.URL, "k", 50, nil)
	_, err := client.FetchUserCasts(context.Background(), "1", "")
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestFetchUserCasts_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"casts": "nope"`))
	}))
	defer server.Close()

	client := NewNeynarClient(server.URL, "k", 50, nil)
	_, err := client.FetchUserCasts(context.Background(), "1", "")
	assert.ErrorIs(t, err, domain.ErrMalformedPage)
}

func TestFetchUserCasts_BadTimestamp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"casts": [{"hash": "0x1", "timestamp": "yesterday"}]}`))
	}))
	defer server.Close()

	client := NewNeynarClient(server.URL, "k", 50, nil)
	_, err := client.FetchUserCasts(context.Background(), "1", "")
	assert.ErrorIs(t, err, domain.ErrMalformedPage)
}

func TestFetchUserCasts_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewNeynarClient(server.URL, "k", 50, NewClient(50*time.Millisecond))
	_, err := client.FetchUserCasts(context.Background(), "1", "")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestFetchUserCasts_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client := NewNeynarClient(baseURL, "k", 50, nil)
	_, err := client.FetchUserCasts(context.Background(), "1", "")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestPageFetcher_BindsFID(t *testing.T) {
	var fids []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fids = append(fids, r.URL.Query().Get("fid"))
		w.Write([]byte(`{"casts": []}`))
	}))
	defer server.Close()

	fetch := NewNeynarClient(server.URL, "k", 50, nil).PageFetcher("777")
	_, err := fetch(context.Background(), "")
	require.NoError(t, err)
	_, err = fetch(context.Background(), "next")
	require.NoError(t, err)

	assert.Equal(t, []string{"777", "777"}, fids)
}

func TestFetchUserCasts_OutOfRangeReplyCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"casts": [
			{"hash": "0x1", "timestamp": "2026-03-09T10:00:00Z", "replies": {"count": -3}},
			{"hash": "0x2", "timestamp": "2026-03-09T09:00:00Z", "replies": {"count": 1e30}},
			{"hash": "0x3", "timestamp": "2026-03-09T08:00:00Z", "replies": {"count": 4}}
		]}`))
	}))
	defer server.Close()

	page, err := NewNeynarClient(server.URL, "k", 50, NewClient(time.Second)).FetchUserCasts(context.Background(), "1", "")
	require.NoError(t, err)
	require.Len(t, page.Posts, 3)

	assert.Equal(t, 0, page.Posts[0].ReplyCount)
	assert.Equal(t, 0, page.Posts[1].ReplyCount)
	assert.Equal(t, 4, page.Posts[2].ReplyCount)
}

func TestFetchUserCasts_CallerCancelIsNotTimeout(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	client := NewNeynarClient(server.URL, "k", 50, NewClient(5*time.Second))
	_, err := client.FetchUserCasts(ctx, "1", "")

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
