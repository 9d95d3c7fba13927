package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mybaseweek/weekstats/internal/render"
)

func newOGCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "og <fid>",
		Short: "Render the share card PNG to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(true)
			if err != nil {
				return err
			}
			c := newClients(cfg)
			ctx := cmd.Context()
			fid := strings.TrimSpace(args[0])

			s, err := c.stats.WeeklyStats(ctx, fid)
			if err != nil {
				return err
			}

			card := render.NewCard(fid, cfg.WindowDays, s)
			if s.AuthorAvatarURL != "" {
				if data, err := c.avatars.Fetch(ctx, s.AuthorAvatarURL); err == nil {
					if img, err := render.DecodeImage(data); err == nil {
						card.Avatar = img
					}
				}
			}

			if out == "" {
				out = fmt.Sprintf("og-%s.png", fid)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := render.RenderOG(f, card); err != nil {
				f.Close()
				return fmt.Errorf("render %s: %w", out, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output path (default og-<fid>.png)")
	return cmd
}
