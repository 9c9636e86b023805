// Package dispatch answers free-text questions, by picking a strategy for each question and
// falling through to the next candidate strategy when one fails.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hermannm.dev/devlog/log"
	"hermannm.dev/leadquery/apperr"
	"hermannm.dev/leadquery/endpoints"
	"hermannm.dev/leadquery/generation"
	"hermannm.dev/leadquery/kpi"
	"hermannm.dev/leadquery/leaderboard"
	"hermannm.dev/leadquery/query"
	"hermannm.dev/leadquery/timewindow"
	"hermannm.dev/wrap"
)

type Dispatcher struct {
	leaderboards leaderboard.Engine
	kpis         kpi.Engine
	endpoints    endpoints.Client
	generator    generation.Generator
	executor     query.Executor
	formatter    Formatter
	now          func() time.Time
}

type Dependencies struct {
	Leaderboards leaderboard.Engine
	KPIs         kpi.Engine
	Endpoints    endpoints.Client
	Generator    generation.Generator
	Executor     query.Executor
	Formatter    Formatter
	// Returns the current time in the location that timeframes are resolved in.
	Clock func() time.Time
}

func NewDispatcher(dependencies Dependencies) Dispatcher {
	clock := dependencies.Clock
	if clock == nil {
		clock = time.Now
	}

	return Dispatcher{
		leaderboards: dependencies.Leaderboards,
		kpis:         dependencies.KPIs,
		endpoints:    dependencies.Endpoints,
		generator:    dependencies.Generator,
		executor:     dependencies.Executor,
		formatter:    dependencies.Formatter,
		now:          clock,
	}
}

type Response struct {
	Question string `json:"question"`
	Response string `json:"response"`
	Data     any    `json:"data"`
	// Only set for generated queries.
	QueryStructure *query.Descriptor `json:"queryStructure,omitempty"`
	QueryType      string            `json:"queryType"`
	Timestamp      time.Time         `json:"timestamp"`
}

type LeaderboardData struct {
	Leaderboard []leaderboard.Entry  `json:"leaderboard"`
	Metric      leaderboard.Metric   `json:"metric"`
	Timeframe   timewindow.Timeframe `json:"timeframe"`
	Window      timewindow.Window    `json:"window"`
}

func (data LeaderboardData) ResultCount() int {
	return len(data.Leaderboard)
}

type outcome struct {
	data        any
	explanation string
	descriptor  *query.Descriptor
}

// Answer takes a single snapshot of the current time, classifies question, executes the
// candidate strategies in order until one succeeds, and formats the result. Failures of all but
// the last candidate are logged and skipped.
func (dispatcher Dispatcher) Answer(ctx context.Context, question string) (Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Response{}, apperr.Validation(nil, "Question is required")
	}

	now := dispatcher.now()
	candidates := Candidates(question)

	for i, strategy := range candidates {
		result, err := dispatcher.execute(ctx, strategy, question, now)
		if err != nil {
			if i == len(candidates)-1 || ctx.Err() != nil {
				return Response{}, wrap.Errorf(err, "failed to answer question with %s strategy", strategy.QueryType())
			}

			log.Warn(
				"strategy failed, trying next",
				slog.String("strategy", strategy.QueryType()),
				slog.String("next", candidates[i+1].QueryType()),
				slog.String("error", err.Error()),
			)
			continue
		}

		log.Info(
			"answered question",
			slog.String("strategy", strategy.QueryType()),
			slog.String("question", question),
		)

		return Response{
			Question:       question,
			Response:       dispatcher.formatter.Format(ctx, question, result.data, result.explanation),
			Data:           result.data,
			QueryStructure: result.descriptor,
			QueryType:      strategy.QueryType(),
			Timestamp:      now,
		}, nil
	}

	// Unreachable, as candidates always ends with the generic strategy.
	return Response{}, &apperr.UnknownStrategyError{Strategy: "none"}
}

func (dispatcher Dispatcher) execute(
	ctx context.Context,
	strategy Strategy,
	question string,
	now time.Time,
) (outcome, error) {
	switch strategy := strategy.(type) {
	case LeaderboardStrategy:
		return dispatcher.executeLeaderboard(ctx, strategy, now)
	case EndpointStrategy:
		return dispatcher.executeEndpoint(ctx, strategy, now)
	case KPIStrategy:
		return dispatcher.executeKPI(ctx, strategy, now)
	case GenericStrategy:
		return dispatcher.executeGeneric(ctx, question, now)
	default:
		return outcome{}, &apperr.UnknownStrategyError{Strategy: fmt.Sprintf("%T", strategy)}
	}
}

func (dispatcher Dispatcher) executeLeaderboard(
	ctx context.Context,
	strategy LeaderboardStrategy,
	now time.Time,
) (outcome, error) {
	window, err := timewindow.Resolve(strategy.Timeframe, now)
	if err != nil {
		return outcome{}, err
	}

	entries, err := dispatcher.leaderboards.Compute(ctx, strategy.Metric, strategy.Timeframe, now)
	if err != nil {
		return outcome{}, wrap.Error(err, "failed to compute leaderboard")
	}

	ranking := "bookings made"
	if strategy.Metric == leaderboard.MetricMostRevenue {
		ranking = "total revenue"
	}

	return outcome{
		data: LeaderboardData{
			Leaderboard: entries,
			Metric:      strategy.Metric,
			Timeframe:   strategy.Timeframe,
			Window:      window,
		},
		explanation: fmt.Sprintf(
			"Top %d bookers ranked by %s, %s", leaderboard.MaxEntries, ranking, describeTimeframe(strategy.Timeframe),
		),
	}, nil
}

func (dispatcher Dispatcher) executeEndpoint(
	ctx context.Context,
	strategy EndpointStrategy,
	now time.Time,
) (outcome, error) {
	window, err := timewindow.Resolve(strategy.Timeframe, now)
	if err != nil {
		return outcome{}, err
	}

	data, err := dispatcher.endpoints.Call(ctx, strategy.Endpoint, window)
	if err != nil {
		return outcome{}, wrap.Errorf(err, "failed to call endpoint '%s'", strategy.Endpoint.Name)
	}

	return outcome{data: data, explanation: strategy.Endpoint.Description}, nil
}

func (dispatcher Dispatcher) executeKPI(
	ctx context.Context,
	strategy KPIStrategy,
	now time.Time,
) (outcome, error) {
	var window *timewindow.Window
	description := "over the last 7 days"

	if strategy.Timeframe != nil {
		resolved, err := timewindow.Resolve(*strategy.Timeframe, now)
		if err != nil {
			return outcome{}, err
		}
		window = &resolved
		description = describeTimeframe(*strategy.Timeframe)
	}

	result, err := dispatcher.kpis.Compute(ctx, strategy.Metric, window, now)
	if err != nil {
		return outcome{}, wrap.Errorf(err, "failed to compute %s", strategy.Metric.DisplayName())
	}

	return outcome{
		data:        result,
		explanation: fmt.Sprintf("%s %s", result.Metric, description),
	}, nil
}

func (dispatcher Dispatcher) executeGeneric(
	ctx context.Context,
	question string,
	now time.Time,
) (outcome, error) {
	descriptor, err := dispatcher.generator.Generate(ctx, question, now)
	if err != nil {
		return outcome{}, err
	}

	result, err := dispatcher.executor.Execute(ctx, descriptor)
	if err != nil {
		return outcome{}, err
	}

	explanation := descriptor.Explanation
	if len(result.Unresolved) != 0 {
		explanation = strings.TrimSpace(fmt.Sprintf(
			"%s (No match for %s, so that filter was ignored.)",
			explanation,
			strings.Join(quoteAll(result.Unresolved), ", "),
		))
	}

	return outcome{data: result.Rows, explanation: explanation, descriptor: &descriptor}, nil
}

func describeTimeframe(timeframe timewindow.Timeframe) string {
	switch timeframe {
	case timewindow.Today:
		return "today"
	case timewindow.Month:
		return "this month"
	default:
		return "this week"
	}
}

func quoteAll(names []string) []string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = fmt.Sprintf("'%s'", name)
	}
	return quoted
}
