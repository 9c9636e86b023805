package kpi_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hermannm.dev/leadquery/db"
	"hermannm.dev/leadquery/db/sqlite/sqlitetest"
	"hermannm.dev/leadquery/kpi"
	"hermannm.dev/leadquery/timewindow"
)

var now = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func seedFunnel(t *testing.T) kpi.Engine {
	store := sqlitetest.NewStore(t)
	seed := sqlitetest.NewSeeder(t, store)

	recent := now.AddDate(0, 0, -2)
	lead := func(status string) {
		seed.Lead(sqlitetest.Lead{Status: status, AssignedAt: recent, BookedAt: recent})
	}

	// 8 assigned, of which 6 booked, 3 attended and 1 sold.
	lead(db.LeadStatusAssigned)
	lead(db.LeadStatusRejected)
	lead(db.LeadStatusBooked)
	lead(db.LeadStatusBooked)
	lead(db.LeadStatusNoShow)
	lead(db.LeadStatusAttended)
	lead(db.LeadStatusAttended)
	lead(db.LeadStatusSold)

	// Outside the trailing week.
	old := now.AddDate(0, 0, -20)
	seed.Lead(sqlitetest.Lead{Status: db.LeadStatusSold, AssignedAt: old, BookedAt: old})

	return kpi.NewEngine(store)
}

func TestCompute(t *testing.T) {
	engine := seedFunnel(t)

	tests := []struct {
		metric kpi.Metric
		want   kpi.Result
	}{
		{kpi.MetricBookingRate, kpi.Result{Metric: "Booking Rate", Value: "75%", Numerator: 6, Denominator: 8}},
		{kpi.MetricShowUpRate, kpi.Result{Metric: "Show Up Rate", Value: "50%", Numerator: 3, Denominator: 6}},
		{
			kpi.MetricSalesConversionRate,
			kpi.Result{Metric: "Sales Conversion Rate", Value: "33%", Numerator: 1, Denominator: 3},
		},
	}

	for _, test := range tests {
		t.Run(test.metric.String(), func(t *testing.T) {
			result, err := engine.Compute(context.Background(), test.metric, nil, now)
			require.NoError(t, err)

			test.want.Window = timewindow.Trailing(kpi.DefaultPeriod, now)
			assert.Equal(t, test.want, result)
		})
	}
}

func TestComputeWithWindow(t *testing.T) {
	engine := seedFunnel(t)

	window := timewindow.Trailing(30*24*time.Hour, now)

	result, err := engine.Compute(context.Background(), kpi.MetricBookingRate, &window, now)
	require.NoError(t, err)

	assert.Equal(t, int64(7), result.Numerator)
	assert.Equal(t, int64(9), result.Denominator)
	assert.Equal(t, "78%", result.Value)
}

func TestZeroDenominatorIsZeroPercent(t *testing.T) {
	engine := kpi.NewEngine(sqlitetest.NewStore(t))

	for _, metric := range []kpi.Metric{
		kpi.MetricBookingRate,
		kpi.MetricShowUpRate,
		kpi.MetricSalesConversionRate,
	} {
		result, err := engine.Compute(context.Background(), metric, nil, now)
		require.NoError(t, err)

		assert.Equal(t, "0%", result.Value)
		assert.Equal(t, int64(0), result.Denominator)
	}
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0, kpi.Rate(0, 0))
	assert.Equal(t, 0, kpi.Rate(5, 0))
	assert.Equal(t, 67, kpi.Rate(2, 3))
	assert.Equal(t, 100, kpi.Rate(4, 4))
	assert.Equal(t, 100, kpi.Rate(5, 4))
}

func TestInvalidMetric(t *testing.T) {
	engine := kpi.NewEngine(sqlitetest.NewStore(t))

	_, err := engine.Compute(context.Background(), kpi.Metric(0), nil, now)
	assert.Error(t, err)
}
