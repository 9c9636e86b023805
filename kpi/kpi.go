// Package kpi computes the fixed ratio metrics of the booking funnel.
package kpi

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
	"hermannm.dev/devlog/log"
	"hermannm.dev/enumnames"
	"hermannm.dev/leadquery/db"
	"hermannm.dev/leadquery/timewindow"
	"hermannm.dev/wrap"
)

// DefaultPeriod is the trailing period that metrics are computed over when no window is given.
const DefaultPeriod = 7 * 24 * time.Hour

type Metric uint8

const (
	MetricBookingRate Metric = iota + 1
	MetricShowUpRate
	MetricSalesConversionRate
)

var metricNames = enumnames.NewMap(map[Metric]string{
	MetricBookingRate:         "booking_rate",
	MetricShowUpRate:          "show_up_rate",
	MetricSalesConversionRate: "sales_conversion_rate",
})

var metricDisplayNames = enumnames.NewMap(map[Metric]string{
	MetricBookingRate:         "Booking Rate",
	MetricShowUpRate:          "Show Up Rate",
	MetricSalesConversionRate: "Sales Conversion Rate",
})

func (metric Metric) IsValid() bool {
	_, ok := metricNames.GetName(metric)
	return ok
}

func (metric Metric) String() string {
	return metricNames.GetNameOrFallback(metric, "INVALID_KPI_METRIC")
}

func (metric Metric) DisplayName() string {
	return metricDisplayNames.GetNameOrFallback(metric, "Unknown KPI")
}

func (metric Metric) MarshalJSON() ([]byte, error) {
	return metricNames.MarshalToNameJSON(metric)
}

func (metric *Metric) UnmarshalJSON(bytes []byte) error {
	return metricNames.UnmarshalFromNameJSON(bytes, metric)
}

type Result struct {
	// Display name of the metric, e.g. "Booking Rate".
	Metric string `json:"metric"`
	// Whole percentage, e.g. "42%".
	Value       string            `json:"value"`
	Numerator   int64             `json:"numerator"`
	Denominator int64             `json:"denominator"`
	Window      timewindow.Window `json:"window"`
}

// Both counts of a metric share the base filters, and differ only in the added status filters.
type formula struct {
	windowColumn string
	denominator  []db.Filter
	numerator    []db.Filter
}

var (
	bookedStatuses   = []string{db.LeadStatusBooked, db.LeadStatusAttended, db.LeadStatusNoShow, db.LeadStatusSold}
	attendedStatuses = []string{db.LeadStatusAttended, db.LeadStatusSold}
)

var formulas = map[Metric]formula{
	MetricBookingRate: {
		windowColumn: "assigned_at",
		numerator:    []db.Filter{db.In("status", bookedStatuses...)},
	},
	MetricShowUpRate: {
		windowColumn: "booked_at",
		denominator:  []db.Filter{db.In("status", bookedStatuses...)},
		numerator:    []db.Filter{db.In("status", attendedStatuses...)},
	},
	MetricSalesConversionRate: {
		windowColumn: "booked_at",
		denominator:  []db.Filter{db.In("status", attendedStatuses...)},
		numerator:    []db.Filter{db.Eq("status", db.LeadStatusSold)},
	},
}

type Engine struct {
	store db.Store
}

func NewEngine(store db.Store) Engine {
	return Engine{store: store}
}

// Compute counts the metric's numerator and denominator over leads within window, or within the
// trailing DefaultPeriod before now if window is nil.
func (engine Engine) Compute(
	ctx context.Context,
	metric Metric,
	window *timewindow.Window,
	now time.Time,
) (Result, error) {
	formula, ok := formulas[metric]
	if !ok {
		return Result{}, fmt.Errorf("invalid KPI metric %d", metric)
	}

	if window == nil {
		trailing := timewindow.Trailing(DefaultPeriod, now)
		window = &trailing
	}

	base := []db.Filter{
		db.Gte(formula.windowColumn, window.Start),
		db.Lte(formula.windowColumn, window.End),
	}

	var numerator, denominator int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		count, err := engine.store.Count(groupCtx, db.TableLeads, withFilters(base, formula.numerator))
		if err != nil {
			return wrap.Errorf(err, "failed to count numerator of %v", metric)
		}
		numerator = count
		return nil
	})
	group.Go(func() error {
		count, err := engine.store.Count(groupCtx, db.TableLeads, withFilters(base, formula.denominator))
		if err != nil {
			return wrap.Errorf(err, "failed to count denominator of %v", metric)
		}
		denominator = count
		return nil
	})
	if err := group.Wait(); err != nil {
		return Result{}, err
	}

	rate := Rate(numerator, denominator)

	log.Debug(
		"computed KPI",
		slog.String("metric", metric.String()),
		slog.Int64("numerator", numerator),
		slog.Int64("denominator", denominator),
		slog.Int("rate", rate),
	)

	return Result{
		Metric:      metric.DisplayName(),
		Value:       fmt.Sprintf("%d%%", rate),
		Numerator:   numerator,
		Denominator: denominator,
		Window:      *window,
	}, nil
}

// Rate returns numerator/denominator as a whole percentage in [0, 100]. A zero denominator gives
// 0.
func Rate(numerator int64, denominator int64) int {
	if denominator <= 0 || numerator <= 0 {
		return 0
	}
	rate := int(math.Round(float64(numerator) / float64(denominator) * 100))
	if rate > 100 {
		return 100
	}
	return rate
}

func withFilters(base []db.Filter, extra []db.Filter) []db.Filter {
	filters := make([]db.Filter, 0, len(base)+len(extra))
	filters = append(filters, base...)
	return append(filters, extra...)
}
