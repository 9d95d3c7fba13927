package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagHelpNamesRealEnvVars(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	assert.Contains(t, flags.Lookup("days").Usage, "STATS_WINDOW_DAYS")
	assert.Contains(t, flags.Lookup("max-pages").Usage, "STATS_MAX_PAGES")
	assert.Contains(t, flags.Lookup("timeout").Usage, "STATS_TIMEOUT")
}

func TestManifestCommand_RunsWithoutAPIKey(t *testing.T) {
	t.Setenv("NEYNAR_API_KEY", "")
	t.Setenv("APP_URL", "https://share.example.com")

	var out bytes.Buffer
	cmd := newManifestCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"homeUrl": "https://share.example.com"`)
}

func TestStatsCommand_RequiresAPIKey(t *testing.T) {
	t.Setenv("NEYNAR_API_KEY", "")

	cmd := newStatsCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"42"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NEYNAR_API_KEY")
}
