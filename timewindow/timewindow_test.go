package timewindow

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	oslo := time.FixedZone("CEST", 2*60*60)

	// Wednesday
	now := time.Date(2026, time.October, 14, 15, 30, 0, 0, oslo)

	tests := []struct {
		timeframe Timeframe
		wantStart time.Time
	}{
		{Today, time.Date(2026, time.October, 14, 0, 0, 0, 0, oslo)},
		{Week, time.Date(2026, time.October, 11, 0, 0, 0, 0, oslo)},
		{Month, time.Date(2026, time.October, 1, 0, 0, 0, 0, oslo)},
	}

	for _, test := range tests {
		t.Run(test.timeframe.String(), func(t *testing.T) {
			window, err := Resolve(test.timeframe, now)
			require.NoError(t, err)

			assert.True(t, test.wantStart.Equal(window.Start), "start was %v", window.Start)
			assert.Equal(t, now, window.End)
			assert.False(t, window.Start.After(window.End))
		})
	}
}

func TestResolveWeekOnSunday(t *testing.T) {
	now := time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)

	window, err := Resolve(Week, now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC), window.Start)
}

func TestResolveAtMidnight(t *testing.T) {
	now := time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC)

	for _, timeframe := range []Timeframe{Today, Week, Month} {
		window, err := Resolve(timeframe, now)
		require.NoError(t, err)
		assert.False(t, window.Start.After(window.End), timeframe.String())
		assert.Equal(t, now, window.End)
	}
}

func TestResolveInvalidTimeframe(t *testing.T) {
	_, err := Resolve(Timeframe(0), time.Now())
	assert.Error(t, err)
}

func TestTrailing(t *testing.T) {
	now := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)

	window := Trailing(7*24*time.Hour, now)

	assert.Equal(t, time.Date(2026, time.October, 7, 12, 0, 0, 0, time.UTC), window.Start)
	assert.Equal(t, now, window.End)
}

func TestTimeframeJSON(t *testing.T) {
	bytes, err := json.Marshal(Month)
	require.NoError(t, err)
	assert.Equal(t, `"month"`, string(bytes))

	var timeframe Timeframe
	require.NoError(t, json.Unmarshal([]byte(`"today"`), &timeframe))
	assert.Equal(t, Today, timeframe)
}
