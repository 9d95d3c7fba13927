package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/mybaseweek/weekstats/internal/manifest"
)

func newManifestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "manifest",
		Short: "Print the mini-app manifest served at /.well-known/farcaster.json",
		Long: `Print the mini-app manifest served at /.well-known/farcaster.json.

Reads APP_URL and MANIFEST_HEADER/PAYLOAD/SIGNATURE. NEYNAR_API_KEY is not needed.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(false)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(manifest.Build(cfg.AppURL, cfg.Manifest))
		},
	}
}
