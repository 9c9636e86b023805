package dispatch

import (
	"hermannm.dev/leadquery/endpoints"
	"hermannm.dev/leadquery/kpi"
	"hermannm.dev/leadquery/leaderboard"
	"hermannm.dev/leadquery/timewindow"
)

type detector struct {
	name   string
	detect func(question normalizedQuestion) (Strategy, bool)
}

// detectors in priority order. The generic strategy is not listed, as it matches everything.
var detectors = []detector{
	{name: "leaderboard", detect: detectLeaderboard},
	{name: "endpoint", detect: detectEndpoint},
	{name: "kpi", detect: detectKPI},
}

var (
	interrogatives = []string{"who", "which", "whos"}
	superlatives   = []string{"most", "top", "best", "highest"}
	bookingNouns   = []string{"booking", "bookings", "booked", "appointments", "appointment"}
	revenueNouns   = []string{
		"revenue", "sales", "sale", "sold", "money", "earned", "earnings", "income", "closed",
	}
)

// Classify returns the strategy of highest priority that matches question.
func Classify(question string) Strategy {
	return Candidates(question)[0]
}

// Candidates returns every strategy matching question in priority order, ending with
// GenericStrategy.
func Candidates(question string) []Strategy {
	normalized := normalize(question)

	candidates := make([]Strategy, 0, len(detectors)+1)
	for _, detector := range detectors {
		if strategy, ok := detector.detect(normalized); ok {
			candidates = append(candidates, strategy)
		}
	}

	return append(candidates, GenericStrategy{})
}

func detectLeaderboard(question normalizedQuestion) (Strategy, bool) {
	if !question.hasAnyToken(interrogatives...) || !question.hasAnyToken(superlatives...) {
		return nil, false
	}

	var metric leaderboard.Metric
	switch {
	case question.hasAnyToken(bookingNouns...):
		metric = leaderboard.MetricMostBookings
	case question.hasAnyToken(revenueNouns...):
		metric = leaderboard.MetricMostRevenue
	default:
		return nil, false
	}

	timeframe, ok := detectTimeframe(question)
	if !ok {
		timeframe = timewindow.Week
	}

	return LeaderboardStrategy{Metric: metric, Timeframe: timeframe}, true
}

func detectEndpoint(question normalizedQuestion) (Strategy, bool) {
	for _, endpoint := range endpoints.Registry {
		if !question.hasAnyPhrase(endpoint.Phrases...) {
			continue
		}

		timeframe, ok := detectTimeframe(question)
		if !ok {
			timeframe = endpoint.DefaultTimeframe()
		}
		return EndpointStrategy{Endpoint: endpoint, Timeframe: timeframe}, true
	}
	return nil, false
}

func detectKPI(question normalizedQuestion) (Strategy, bool) {
	var metric kpi.Metric
	switch {
	case question.hasAnyPhrase("show up rate", "showup rate", "show rate", "attendance rate"):
		metric = kpi.MetricShowUpRate
	case question.hasAnyPhrase("booking rate", "book rate"):
		metric = kpi.MetricBookingRate
	case question.hasAnyPhrase("conversion rate", "close rate", "closing rate"):
		metric = kpi.MetricSalesConversionRate
	default:
		return nil, false
	}

	strategy := KPIStrategy{Metric: metric}
	// "This week" keeps the trailing default, so only day and month narrow the window.
	if timeframe, ok := detectTimeframe(question); ok && timeframe != timewindow.Week {
		strategy.Timeframe = &timeframe
	}
	return strategy, true
}

func detectTimeframe(question normalizedQuestion) (timewindow.Timeframe, bool) {
	switch {
	case question.hasAnyToken("today", "todays"):
		return timewindow.Today, true
	case question.hasAnyToken("month", "monthly", "months"):
		return timewindow.Month, true
	case question.hasAnyToken("week", "weekly", "weeks"):
		return timewindow.Week, true
	default:
		return 0, false
	}
}
