// Package timewindow resolves symbolic timeframes into concrete time windows ending at a given
// instant.
package timewindow

import (
	"fmt"
	"time"

	"hermannm.dev/enumnames"
)

type Timeframe uint8

const (
	Today Timeframe = iota + 1
	Week
	Month
)

var timeframeNames = enumnames.NewMap(map[Timeframe]string{
	Today: "today",
	Week:  "week",
	Month: "month",
})

func (timeframe Timeframe) IsValid() bool {
	_, ok := timeframeNames.GetName(timeframe)
	return ok
}

func (timeframe Timeframe) String() string {
	return timeframeNames.GetNameOrFallback(timeframe, "INVALID_TIMEFRAME")
}

func (timeframe Timeframe) MarshalJSON() ([]byte, error) {
	return timeframeNames.MarshalToNameJSON(timeframe)
}

func (timeframe *Timeframe) UnmarshalJSON(bytes []byte) error {
	return timeframeNames.UnmarshalFromNameJSON(bytes, timeframe)
}

// Window is the closed interval [Start, End].
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Resolve returns the window from the start of the given timeframe up to now. Calendar
// boundaries are computed in now's location:
//   - Today: midnight today
//   - Week: midnight of the most recent Sunday (today, if now is a Sunday)
//   - Month: midnight of the first day of the month
func Resolve(timeframe Timeframe, now time.Time) (Window, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch timeframe {
	case Today:
		return Window{Start: midnight, End: now}, nil
	case Week:
		return Window{Start: midnight.AddDate(0, 0, -int(now.Weekday())), End: now}, nil
	case Month:
		return Window{Start: midnight.AddDate(0, 0, 1-now.Day()), End: now}, nil
	default:
		return Window{}, fmt.Errorf("unrecognized timeframe %v", timeframe)
	}
}

// Trailing returns the window of the given duration ending at now.
func Trailing(duration time.Duration, now time.Time) Window {
	return Window{Start: now.Add(-duration), End: now}
}
