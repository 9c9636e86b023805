// Package leaderboard ranks bookers by bookings made or revenue within a time window.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"hermannm.dev/devlog/log"
	"hermannm.dev/enumnames"
	"hermannm.dev/leadquery/db"
	"hermannm.dev/leadquery/timewindow"
	"hermannm.dev/wrap"
)

const MaxEntries = 10

type Metric uint8

const (
	MetricMostBookings Metric = iota + 1
	MetricMostRevenue
)

var metricNames = enumnames.NewMap(map[Metric]string{
	MetricMostBookings: "most_bookings",
	MetricMostRevenue:  "most_revenue",
})

func (metric Metric) IsValid() bool {
	_, ok := metricNames.GetName(metric)
	return ok
}

func (metric Metric) String() string {
	return metricNames.GetNameOrFallback(metric, "INVALID_LEADERBOARD_METRIC")
}

func (metric Metric) MarshalJSON() ([]byte, error) {
	return metricNames.MarshalToNameJSON(metric)
}

func (metric *Metric) UnmarshalJSON(bytes []byte) error {
	return metricNames.UnmarshalFromNameJSON(bytes, metric)
}

type Entry struct {
	EntityID     string  `json:"entityId"`
	Name         string  `json:"name"`
	BookingsMade int     `json:"bookingsMade"`
	SalesMade    int     `json:"salesMade"`
	TotalRevenue float64 `json:"totalRevenue"`
	// 0 if no sales.
	AverageSale float64 `json:"averageSale"`
	// Sales per booking as a whole percentage, 0 if no bookings.
	ConversionRate int `json:"conversionRate"`
}

type Engine struct {
	store       db.Store
	concurrency int
}

// NewEngine returns an engine computing at most concurrency users' entries at a time.
func NewEngine(store db.Store, concurrency int) Engine {
	if concurrency < 1 {
		concurrency = 1
	}
	return Engine{store: store, concurrency: concurrency}
}

// Compute returns the top entries for metric among bookers and admins, sorted descending by
// bookings made or total revenue. Users tied on the metric keep their order by name.
func (engine Engine) Compute(
	ctx context.Context,
	metric Metric,
	timeframe timewindow.Timeframe,
	now time.Time,
) ([]Entry, error) {
	if !metric.IsValid() {
		return nil, fmt.Errorf("invalid leaderboard metric %d", metric)
	}

	window, err := timewindow.Resolve(timeframe, now)
	if err != nil {
		return nil, wrap.Error(err, "failed to resolve leaderboard window")
	}

	users, err := engine.store.Select(ctx, db.SelectQuery{
		Table:   db.TableUsers,
		Columns: []string{"id", "name"},
		Filters: []db.Filter{db.In("role", db.RoleBooker, db.RoleAdmin)},
		Order:   &db.Order{Column: "name", SortOrder: db.SortOrderAscending},
	})
	if err != nil {
		return nil, wrap.Error(err, "failed to load leaderboard users")
	}

	log.Debug(
		"computing leaderboard",
		slog.String("metric", metric.String()),
		slog.String("timeframe", timeframe.String()),
		slog.Int("users", len(users)),
	)

	entries := make([]Entry, len(users))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(engine.concurrency)

	for i, user := range users {
		i, user := i, user // per-iteration copies (go directive < 1.22)
		group.Go(func() error {
			entry, err := engine.computeEntry(groupCtx, user, window)
			if err != nil {
				return wrap.Errorf(err, "failed to compute leaderboard entry for user '%v'", user["name"])
			}
			entries[i] = entry
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	rank(entries, metric)

	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	return entries, nil
}

func (engine Engine) computeEntry(
	ctx context.Context,
	user db.Row,
	window timewindow.Window,
) (Entry, error) {
	entry := Entry{EntityID: fmt.Sprint(user["id"]), Name: fmt.Sprint(user["name"])}

	bookings, err := engine.store.Select(ctx, db.SelectQuery{
		Table:   db.TableLeads,
		Columns: []string{"id"},
		Filters: []db.Filter{
			db.Eq("booker_id", entry.EntityID),
			db.Gte("booked_at", window.Start),
			db.Lte("booked_at", window.End),
		},
	})
	if err != nil {
		return Entry{}, wrap.Error(err, "failed to load bookings")
	}

	entry.BookingsMade = len(bookings)
	if entry.BookingsMade == 0 {
		return entry, nil
	}

	leadIDs := make([]any, len(bookings))
	for i, booking := range bookings {
		leadIDs[i] = booking["id"]
	}

	sales, err := engine.store.Select(ctx, db.SelectQuery{
		Table:   db.TableSales,
		Columns: []string{"amount"},
		Filters: []db.Filter{db.In("lead_id", leadIDs...)},
	})
	if err != nil {
		return Entry{}, wrap.Error(err, "failed to load sales for bookings")
	}

	entry.SalesMade = len(sales)
	for _, sale := range sales {
		if amount, ok := db.Float64(sale["amount"]); ok {
			entry.TotalRevenue += amount
		}
	}

	if entry.SalesMade != 0 {
		entry.AverageSale = entry.TotalRevenue / float64(entry.SalesMade)
	}
	// Leads with more than one sale would otherwise push the rate past 100.
	entry.ConversionRate = int(math.Round(float64(entry.SalesMade) / float64(entry.BookingsMade) * 100))
	if entry.ConversionRate > 100 {
		entry.ConversionRate = 100
	}

	return entry, nil
}

func rank(entries []Entry, metric Metric) {
	sort.SliceStable(entries, func(i, j int) bool {
		switch metric {
		case MetricMostRevenue:
			return entries[i].TotalRevenue > entries[j].TotalRevenue
		default:
			return entries[i].BookingsMade > entries[j].BookingsMade
		}
	})
}
