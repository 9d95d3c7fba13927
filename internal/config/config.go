package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `validate:"required,numeric"`

	// Neynar feed API
	NeynarAPIKey    string        `validate:"required"`
	NeynarBaseURL   string        `validate:"required,url"`
	FeedPageSize    int           `validate:"min=1,max=150"`
	UpstreamTimeout time.Duration `validate:"gt=0"`

	// Weekly stats
	WindowDays   int           `validate:"min=1,max=90"`
	MaxPages     int           `validate:"min=1,max=10000"`
	StatsTimeout time.Duration `validate:"gt=0"`

	// Public pages and manifest
	AppURL          string `validate:"required,url"`
	DefaultFID      string
	DisableManifest bool
	Manifest        ManifestSigning

	// Rate limiting; Redis is optional, without it limits are per process
	RedisURL  string
	RLEnabled bool
	RLLimit   int           `validate:"min=1"`
	RLWindow  time.Duration `validate:"gt=0"`

	CORSAllowedOrigins []string

	OTelEnabled     bool
	OTLPEndpoint    string
	OTelSampleRatio float64 `validate:"gte=0,lte=1"`

	LogLevel  string
	LogFormat string `validate:"oneof=json console"`

	HTTPReadTimeout  time.Duration `validate:"gt=0"`
	HTTPWriteTimeout time.Duration `validate:"gt=0"`
	HTTPIdleTimeout  time.Duration `validate:"gt=0"`
}

// ManifestSigning is the account association proof published in the mini-app manifest.
type ManifestSigning struct {
	Header    string
	Payload   string
	Signature string
}

var validate = validator.New()

func Load() (*Config, error) {
	cfg := fromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOffline is Load for tools that never call Neynar: NEYNAR_API_KEY is
// not required.
func LoadOffline() (*Config, error) {
	cfg := fromEnv()
	if err := describe(validate.StructExcept(cfg, "NeynarAPIKey")); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	return &Config{
		Port: getEnv("HTTP_PORT", "8080"),

		NeynarAPIKey:    getEnv("NEYNAR_API_KEY", ""),
		NeynarBaseURL:   strings.TrimRight(getEnv("NEYNAR_BASE_URL", "https://api.neynar.com"), "/"),
		FeedPageSize:    getIntEnv("FEED_PAGE_SIZE", 50),
		UpstreamTimeout: getDuration("UPSTREAM_TIMEOUT", 5*time.Second),

		WindowDays:   getIntEnv("STATS_WINDOW_DAYS", 7),
		MaxPages:     getIntEnv("STATS_MAX_PAGES", 200),
		StatsTimeout: getDuration("STATS_TIMEOUT", 15*time.Second),

		AppURL:          strings.TrimRight(getEnv("APP_URL", "https://my-base-week.vercel.app"), "/"),
		DefaultFID:      getEnv("DEFAULT_FID", "250425"),
		DisableManifest: getBool("DISABLE_MINIAPP_MANIFEST", false),
		Manifest: ManifestSigning{
			Header:    getEnv("MANIFEST_HEADER", ""),
			Payload:   getEnv("MANIFEST_PAYLOAD", ""),
			Signature: getEnv("MANIFEST_SIGNATURE", ""),
		},

		RedisURL:  getEnv("REDIS_URL", ""),
		RLEnabled: getBool("RL_ENABLED", true),
		RLLimit:   getIntEnv("RL_LIMIT", 60),
		RLWindow:  getDuration("RL_WINDOW", time.Minute),

		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		OTelEnabled:     getBool("OTEL_ENABLED", false),
		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTelSampleRatio: getFloat("OTEL_SAMPLE_RATIO", 1),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		HTTPReadTimeout:  getDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout: getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		HTTPIdleTimeout:  getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
	}
}

// Validate reports the first invalid field by its environment variable name.
func (c *Config) Validate() error {
	return describe(validate.Struct(c))
}

func describe(err error) error {
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return fmt.Errorf("invalid config: %w", err)
	}

	fe := verrs[0]
	name := envNames[fe.Field()]
	if name == "" {
		name = fe.Field()
	}
	if fe.Tag() == "required" {
		return fmt.Errorf("missing %s", name)
	}
	return fmt.Errorf("invalid %s: failed %q check", name, fe.Tag())
}

var envNames = map[string]string{
	"Port":             "HTTP_PORT",
	"NeynarAPIKey":     "NEYNAR_API_KEY",
	"NeynarBaseURL":    "NEYNAR_BASE_URL",
	"FeedPageSize":     "FEED_PAGE_SIZE",
	"UpstreamTimeout":  "UPSTREAM_TIMEOUT",
	"WindowDays":       "STATS_WINDOW_DAYS",
	"MaxPages":         "STATS_MAX_PAGES",
	"StatsTimeout":     "STATS_TIMEOUT",
	"AppURL":           "APP_URL",
	"RLLimit":          "RL_LIMIT",
	"RLWindow":         "RL_WINDOW",
	"LogFormat":        "LOG_FORMAT",
	"HTTPReadTimeout":  "HTTP_READ_TIMEOUT",
	"HTTPWriteTimeout": "HTTP_WRITE_TIMEOUT",
	"HTTPIdleTimeout":  "HTTP_IDLE_TIMEOUT",
	"OTelSampleRatio":  "OTEL_SAMPLE_RATIO",
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getIntEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
