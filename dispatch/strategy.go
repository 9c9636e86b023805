package dispatch

import (
	"hermannm.dev/leadquery/endpoints"
	"hermannm.dev/leadquery/kpi"
	"hermannm.dev/leadquery/leaderboard"
	"hermannm.dev/leadquery/timewindow"
)

// Strategy is how a question is answered. Implemented only by the types in this file.
type Strategy interface {
	// QueryType is reported to the caller as the kind of answer given.
	QueryType() string
	strategy()
}

type LeaderboardStrategy struct {
	Metric    leaderboard.Metric
	Timeframe timewindow.Timeframe
}

type EndpointStrategy struct {
	Endpoint  endpoints.Endpoint
	Timeframe timewindow.Timeframe
}

type KPIStrategy struct {
	Metric kpi.Metric
	// nil for the trailing default period.
	Timeframe *timewindow.Timeframe
}

// GenericStrategy answers with a generated query descriptor.
type GenericStrategy struct{}

func (LeaderboardStrategy) QueryType() string { return "leaderboard" }
func (EndpointStrategy) QueryType() string    { return "endpoint" }
func (KPIStrategy) QueryType() string         { return "kpi" }
func (GenericStrategy) QueryType() string     { return "sql" }

func (LeaderboardStrategy) strategy() {}
func (EndpointStrategy) strategy()    {}
func (KPIStrategy) strategy()         {}
func (GenericStrategy) strategy()     {}
