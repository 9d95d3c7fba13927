package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mybaseweek/weekstats/internal/domain"
)

func sample() *domain.WeeklyStats {
	return &domain.WeeklyStats{
		UserID:          "42",
		WindowDays:      7,
		TotalPosts:      2,
		TotalLikes:      12,
		TotalRecasts:    1,
		TotalReplies:    5,
		EngagementScore: 65,
		TopPost: &domain.TopPost{
			ID:        "0x2",
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			Likes:     2,
			Replies:   5,
			Score:     52,
		},
		AuthorHandle: "alice",
	}
}

func TestWriteStatsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStatsJSON(&buf, sample()))

	out := buf.String()
	assert.Contains(t, out, `"fid": "42"`)
	assert.Contains(t, out, `"engagementScore": 65`)
	assert.Contains(t, out, `"hash": "0x2"`)
	assert.Contains(t, out, `"displayName": "alice"`)
}

func TestWriteStatsTable(t *testing.T) {
	var buf bytes.Buffer
	writeStatsTable(&buf, sample())

	out := buf.String()
	assert.Contains(t, out, "fid 42, last 7 days")
	assert.Contains(t, out, "65")
	assert.Contains(t, out, "0x2")
	assert.Contains(t, out, "Engagement score 65.")
}

func TestWriteStatsTable_NoTopCast(t *testing.T) {
	s := &domain.WeeklyStats{UserID: "7", WindowDays: 7}

	var buf bytes.Buffer
	writeStatsTable(&buf, s)

	assert.NotContains(t, buf.String(), "Top cast")
	assert.Contains(t, buf.String(), "0 casts")
}
