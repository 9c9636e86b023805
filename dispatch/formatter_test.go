package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hermannm.dev/leadquery/db"
	"hermannm.dev/leadquery/generation/generationtest"
	"hermannm.dev/leadquery/leaderboard"
	"hermannm.dev/leadquery/timewindow"
)

func TestFormatFallback(t *testing.T) {
	rows := []db.Row{{"name": "Anna"}, {"name": "Bjørn"}}

	unconfigured := NewFormatter(&generationtest.Service{}, 100)
	assert.Equal(
		t,
		"I found 2 result(s) for your question.",
		unconfigured.Format(context.Background(), "Which leads?", rows, ""),
	)

	failing := NewFormatter(generationtest.Failing(errors.New("timeout")), 100)
	assert.Equal(
		t,
		"I found 2 result(s) for your question.",
		failing.Format(context.Background(), "Which leads?", rows, ""),
	)

	blank := NewFormatter(generationtest.Replying("  \n"), 100)
	assert.Equal(
		t,
		"I found 0 result(s) for your question.",
		blank.Format(context.Background(), "Which leads?", []db.Row{}, ""),
	)
}

func TestFormatWithService(t *testing.T) {
	service := generationtest.Replying(" Anna made the most bookings. \n")
	formatter := NewFormatter(service, 30)

	data := LeaderboardData{
		Leaderboard: []leaderboard.Entry{{Name: "Anna", BookingsMade: 12}},
		Metric:      leaderboard.MetricMostBookings,
		Timeframe:   timewindow.Week,
	}
	answer := formatter.Format(context.Background(), "Who made the most bookings?", data, "Top bookers")

	assert.Equal(t, "Anna made the most bookings.", answer)

	prompts := service.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "QUESTION: Who made the most bookings?")
	assert.Contains(t, prompts[0], "WHAT THE DATA IS: Top bookers")
	assert.Contains(t, prompts[0], "(truncated)")
	assert.True(t, strings.Contains(prompts[0], "at most 4 sentences"))
}

func TestTruncatedDataStaysValidUTF8(t *testing.T) {
	service := generationtest.Replying("Bjørn made one sale.")
	// The byte limit falls inside the two-byte "ø".
	formatter := NewFormatter(service, len(`[{"name":"Bj`)+1)

	formatter.Format(context.Background(), "Who sold?", []db.Row{{"name": "Bjørn"}}, "")

	prompts := service.Prompts()
	require.Len(t, prompts, 1)
	assert.True(t, utf8.ValidString(prompts[0]))
	assert.Contains(t, prompts[0], `DATA (JSON): [{"name":"Bj ... (truncated)`)
}

func TestCutAtRuneBoundary(t *testing.T) {
	assert.Equal(t, "Bj", cutAtRuneBoundary("Bjørn", 3))
	assert.Equal(t, "Bjø", cutAtRuneBoundary("Bjørn", 4))
	assert.Equal(t, "Bjørn", cutAtRuneBoundary("Bjørn", 20))
	assert.Equal(t, "", cutAtRuneBoundary("ø", 1))
}

func TestCountResults(t *testing.T) {
	assert.Equal(t, 0, countResults(nil))
	assert.Equal(t, 3, countResults([]any{1, 2, 3}))
	assert.Equal(t, 1, countResults(map[string]any{"total": 5}))
	assert.Equal(t, 2, countResults(LeaderboardData{Leaderboard: make([]leaderboard.Entry, 2)}))
	assert.Equal(t, 0, countResults((*int)(nil)))
}
