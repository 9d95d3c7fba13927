package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mybaseweek/weekstats/internal/config"
	"github.com/mybaseweek/weekstats/internal/downstream"
	"github.com/mybaseweek/weekstats/internal/logger"
	"github.com/mybaseweek/weekstats/internal/stats"
)

var (
	debug    bool
	days     int
	maxPages int
	timeout  time.Duration

	rootCmd = &cobra.Command{
		Use:           "weekstats",
		Short:         "Weekly Farcaster activity stats",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level to stderr")
	rootCmd.PersistentFlags().IntVar(&days, "days", 0, "window length in days (default STATS_WINDOW_DAYS)")
	rootCmd.PersistentFlags().IntVar(&maxPages, "max-pages", 0, "feed page cap (default STATS_MAX_PAGES)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "overall deadline (default STATS_TIMEOUT)")

	rootCmd.AddCommand(newStatsCommand())
	rootCmd.AddCommand(newOGCommand())
	rootCmd.AddCommand(newManifestCommand())
}

// loadConfig reads the service environment and applies flag overrides.
// Commands that never call Neynar pass needFeed=false and run without
// NEYNAR_API_KEY.
func loadConfig(needFeed bool) (*config.Config, error) {
	if !needFeed {
		cfg, err := config.LoadOffline()
		if err != nil {
			return nil, err
		}
		initLogger()
		return cfg, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if days > 0 {
		cfg.WindowDays = days
	}
	if maxPages > 0 {
		cfg.MaxPages = maxPages
	}
	if timeout > 0 {
		cfg.StatsTimeout = timeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	initLogger()
	return cfg, nil
}

func initLogger() {
	level := "warn"
	if debug {
		level = "debug"
	}
	logger.InitWithWriter(os.Stderr, level, "console")
}

type clients struct {
	stats   *stats.Service
	avatars *downstream.AvatarClient
}

func newClients(cfg *config.Config) clients {
	hc := downstream.NewClient(cfg.UpstreamTimeout)
	neynar := downstream.NewNeynarClient(cfg.NeynarBaseURL, cfg.NeynarAPIKey, cfg.FeedPageSize, hc)
	return clients{
		stats:   stats.NewService(neynar, stats.NewReducer(cfg.MaxPages), cfg.WindowDays, cfg.StatsTimeout),
		avatars: downstream.NewAvatarClient(downstream.NewPublicClient(cfg.UpstreamTimeout)),
	}
}
