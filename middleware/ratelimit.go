package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims entries older than the window, then admits the
// request only while the remaining count is under the limit.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, ttl)
		return 1
	end

	return 0
`)

// RedisRateLimiter is a sliding window rate limiter shared by all replicas
// through Redis.
type RedisRateLimiter struct {
	rdb    *redis.Client
	prefix string
	seq    func() int64
}

func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{
		rdb:    rdb,
		prefix: "rl:weekstats:",
		seq:    func() int64 { return time.Now().UnixNano() },
	}
}

type RateLimitConfig struct {
	Scope  string        // key namespace, e.g. "stats"
	Limit  int           // max requests per window
	Window time.Duration // window length
	KeyFn  func(r *http.Request) string
}

// Middleware enforces cfg. It fails open when Redis is missing or errors:
// an unavailable limiter must not take the service down with it.
func (l *RedisRateLimiter) Middleware(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFn := cfg.KeyFn
	if keyFn == nil {
		keyFn = KeyByIP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil || l.rdb == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := l.prefix + cfg.Scope + ":" + keyFn(r)
			allowed, err := l.isAllowed(r.Context(), key, cfg.Limit, cfg.Window)
			if err != nil || allowed {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := int(cfg.Window.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{
				"error":      "rate_limited",
				"message":    "too many requests",
				"request_id": GetRequestID(r.Context()),
			})
		})
	}
}

func (l *RedisRateLimiter) isAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now().UnixMilli()
	windowStart := now - window.Milliseconds()
	member := strconv.FormatInt(l.seq(), 10)

	result, err := slidingWindowScript.Run(ctx, l.rdb, []string{key},
		now, windowStart, limit, window.Milliseconds(), member,
	).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

// KeyByIP keys on the client address. Run chi's RealIP first when the
// service sits behind a proxy.
func KeyByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
