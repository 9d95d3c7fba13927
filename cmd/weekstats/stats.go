package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mybaseweek/weekstats/internal/api/handlers"
	"github.com/mybaseweek/weekstats/internal/domain"
	"github.com/mybaseweek/weekstats/internal/render"
)

func newStatsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats <fid>",
		Short: "Print weekly stats for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(true)
			if err != nil {
				return err
			}
			c := newClients(cfg)

			s, err := c.stats.WeeklyStats(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if asJSON {
				return writeStatsJSON(cmd.OutOrStdout(), s)
			}
			writeStatsTable(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the /stats JSON body instead of a table")
	return cmd
}

func writeStatsJSON(w io.Writer, s *domain.WeeklyStats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(handlers.NewStatsResponse(s))
}

func writeStatsTable(w io.Writer, s *domain.WeeklyStats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("fid %s, last %d days", s.UserID, s.WindowDays))

	t.AppendHeader(table.Row{"Casts", "Likes", "Recasts", "Replies", "Engagement"})
	t.AppendRow(table.Row{s.TotalPosts, s.TotalLikes, s.TotalRecasts, s.TotalReplies, s.EngagementScore})
	if s.TopPost != nil {
		t.AppendFooter(table.Row{"Top cast", s.TopPost.ID, "score", s.TopPost.Score, ""})
	}
	t.Render()

	fmt.Fprintln(w, render.ShareText(s))
}
