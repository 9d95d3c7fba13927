package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mybaseweek/weekstats/internal/api"
	"github.com/mybaseweek/weekstats/internal/config"
	"github.com/mybaseweek/weekstats/internal/downstream"
	"github.com/mybaseweek/weekstats/internal/stats"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:               "8080",
		WindowDays:         7,
		MaxPages:           10,
		AppURL:             "https://app.example",
		DefaultFID:         "250425",
		RLEnabled:          false,
		RLLimit:            60,
		RLWindow:           time.Minute,
		CORSAllowedOrigins: []string{"*"},
	}
}

// fakeNeynar serves two pages for fid 42: two recent casts, then one older
// than the window.
func fakeNeynar(t *testing.T) *httptest.Server {
	t.Helper()
	now := time.Now().UTC()
	ts := func(d time.Duration) string { return now.Add(-d).Format(time.RFC3339) }

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/farcaster/feed/user/casts", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

		if r.URL.Query().Get("fid") == "500" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("cursor") {
		case "":
			fmt.Fprintf(w, `{"casts":[
				{"hash":"0x1","text":"first","timestamp":%q,"author":{"fid":42,"username":"alice","display_name":"Alice"},
				 "reactions":{"likes_count":10,"recasts_count":1},"replies":{"count":0}},
				{"hash":"0x2","text":"second","timestamp":%q,"author":{"fid":42,"username":"alice"},
				 "reactions":{"likes":[{"fid":1},{"fid":2}],"recasts":[]},"replies":{"count":5}}
			],"next":{"cursor":"p2"}}`, ts(time.Hour), ts(48*time.Hour))
		case "p2":
			fmt.Fprintf(w, `{"casts":[
				{"hash":"0x3","text":"old","timestamp":%q,"reactions":{"likes_count":100}}
			],"next":{"cursor":"p3"}}`, ts(10*24*time.Hour))
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))
}

func newTestRouter(t *testing.T, cfg *config.Config, rdb *redis.Client) http.Handler {
	t.Helper()
	upstream := fakeNeynar(t)
	t.Cleanup(upstream.Close)

	hc := downstream.NewClient(2 * time.Second)
	neynar := downstream.NewNeynarClient(upstream.URL, "test-key", 50, hc)
	svc := stats.NewService(neynar, stats.NewReducer(cfg.MaxPages), cfg.WindowDays, 5*time.Second)

	return api.NewRouter(cfg, api.Deps{
		Stats:   svc,
		Avatars: downstream.NewAvatarClient(hc),
		Redis:   rdb,
	})
}

func TestRouter_Integration(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil)

	t.Run("Healthz", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "OK", w.Body.String())
	})

	t.Run("Stats", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats?userId=42", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

		var body struct {
			FID             string `json:"fid"`
			Days            int    `json:"days"`
			TotalCasts      int    `json:"totalCasts"`
			TotalLikes      int    `json:"totalLikes"`
			TotalRecasts    int    `json:"totalRecasts"`
			TotalReplies    int    `json:"totalReplies"`
			EngagementScore int    `json:"engagementScore"`
			TopCast         struct {
				Hash  string `json:"hash"`
				Score int    `json:"score"`
			} `json:"topCast"`
			User struct {
				Username    string `json:"username"`
				DisplayName string `json:"displayName"`
			} `json:"user"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

		assert.Equal(t, "42", body.FID)
		assert.Equal(t, 7, body.Days)
		assert.Equal(t, 2, body.TotalCasts)
		assert.Equal(t, 12, body.TotalLikes)
		assert.Equal(t, 1, body.TotalRecasts)
		assert.Equal(t, 5, body.TotalReplies)
		assert.Equal(t, 65, body.EngagementScore)
		assert.Equal(t, "0x2", body.TopCast.Hash)
		assert.Equal(t, 52, body.TopCast.Score)
		assert.Equal(t, "alice", body.User.Username)
		assert.Equal(t, "Alice", body.User.DisplayName)
	})

	t.Run("Legacy stats alias", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/my-base-week?fid=42", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"engagementScore":65`)
	})

	t.Run("Missing userId", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"missing_parameter"`)
	})

	t.Run("Upstream failure", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats?userId=500", nil))
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"upstream_unavailable"`)
	})

	t.Run("OG image", func(t *testing.T) {
		for _, path := range []string{"/og/42", "/api/og/42", "/og/500"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code, path)
			assert.Equal(t, "image/png", w.Header().Get("Content-Type"), path)
		}
	})

	t.Run("Share page", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/share/42", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "https://app.example/og/42")
	})

	t.Run("Home page", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?userId=42", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "second")
	})

	t.Run("Manifest", func(t *testing.T) {
		for _, path := range []string{"/.well-known/farcaster.json", "/.well-known/app-manifest"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code, path)
			assert.Contains(t, w.Body.String(), `"homeUrl":"https://app.example"`, path)
		}
	})

	t.Run("Metrics", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "weekstats_upstream_requests_total")
	})
}

func TestRouter_ManifestDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.DisableManifest = true
	router := newTestRouter(t, cfg, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/.well-known/farcaster.json", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_RateLimitWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := testConfig()
	cfg.RLEnabled = true
	cfg.RLLimit = 2
	router := newTestRouter(t, cfg, rdb)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/stats?userId=42", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RateLimitInMemory(t *testing.T) {
	cfg := testConfig()
	cfg.RLEnabled = true
	cfg.RLLimit = 1
	router := newTestRouter(t, cfg, nil)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/share/42", nil))
	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/share/42", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
