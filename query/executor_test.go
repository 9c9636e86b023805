package query_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hermannm.dev/leadquery/apperr"
	"hermannm.dev/leadquery/db"
	"hermannm.dev/leadquery/db/sqlite/sqlitetest"
	"hermannm.dev/leadquery/query"
)

var day = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	executor query.Executor
	chicko   string
	sven     string
}

func newFixture(t *testing.T) fixture {
	store := sqlitetest.NewStore(t)
	seed := sqlitetest.NewSeeder(t, store)

	chicko := seed.User("Chicko Hansen", db.RoleBooker)
	sven := seed.User("Sven Olsen", db.RoleBooker)

	seed.Lead(sqlitetest.Lead{Name: "Anna", Status: db.LeadStatusBooked, BookerID: chicko, BookedAt: day})
	seed.Lead(sqlitetest.Lead{Name: "Bjørn", Status: db.LeadStatusSold, BookerID: chicko, BookedAt: day})
	seed.Lead(sqlitetest.Lead{Name: "Cecilie", Status: db.LeadStatusBooked, BookerID: sven, BookedAt: day})
	seed.Lead(sqlitetest.Lead{Name: "Dag", Status: db.LeadStatusNew})

	soldLead := seed.Lead(sqlitetest.Lead{Name: "Eva", Status: db.LeadStatusSold, BookerID: sven})
	seed.Sale(soldLead, 1000, day.AddDate(0, 0, -30))
	seed.Sale(soldLead, 3000, day.AddDate(0, 0, -30))

	return fixture{executor: query.NewExecutor(store), chicko: chicko, sven: sven}
}

func TestCountReturnsSingleRow(t *testing.T) {
	fixture := newFixture(t)

	result, err := fixture.executor.Execute(context.Background(), query.Descriptor{
		Table:   db.TableLeads,
		Select:  "count(*)",
		Filters: []query.Filter{{Column: "status", Operator: db.OperatorEqual, Value: "booked"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []db.Row{{"count": int64(2)}}, result.Rows)
}

func TestCountColumnSkipsNulls(t *testing.T) {
	fixture := newFixture(t)

	result, err := fixture.executor.Execute(context.Background(), query.Descriptor{
		Table:  db.TableLeads,
		Select: "count(booked_at)",
	})
	require.NoError(t, err)

	assert.Equal(t, []db.Row{{"count": int64(3)}}, result.Rows)
}

func TestAggregates(t *testing.T) {
	fixture := newFixture(t)

	tests := []struct {
		selection query.Projection
		want      db.Row
	}{
		{"sum(amount)", db.Row{"sum": 4000.0}},
		{"avg(amount)", db.Row{"avg": 2000.0}},
		{"MIN(amount)", db.Row{"min": 1000.0}},
		{"max( amount )", db.Row{"max": 3000.0}},
	}

	for _, test := range tests {
		t.Run(string(test.selection), func(t *testing.T) {
			result, err := fixture.executor.Execute(context.Background(), query.Descriptor{
				Table:  db.TableSales,
				Select: test.selection,
			})
			require.NoError(t, err)

			assert.Equal(t, []db.Row{test.want}, result.Rows)
		})
	}
}

func TestAverageOfNoRowsIsZero(t *testing.T) {
	fixture := newFixture(t)

	result, err := fixture.executor.Execute(context.Background(), query.Descriptor{
		Table:  db.TableSales,
		Select: "avg(amount)",
		Filters: []query.Filter{
			{Column: "created_at", Operator: db.OperatorGreaterThanOrEqual, Value: "2026-10-11"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []db.Row{{"avg": 0.0}}, result.Rows)
}

func TestAggregateIgnoresOrderAndLimit(t *testing.T) {
	fixture := newFixture(t)
	limit := 1

	result, err := fixture.executor.Execute(context.Background(), query.Descriptor{
		Table:  db.TableSales,
		Select: "sum(amount)",
		Order:  &query.Order{Column: "amount", Ascending: true},
		Limit:  &limit,
	})
	require.NoError(t, err)

	assert.Equal(t, []db.Row{{"sum": 4000.0}}, result.Rows)
}

func TestProjectionWithOrderAndLimit(t *testing.T) {
	fixture := newFixture(t)
	limit := 2

	result, err := fixture.executor.Execute(context.Background(), query.Descriptor{
		Table:  db.TableLeads,
		Select: "name, status",
		Order:  &query.Order{Column: "name", Ascending: false},
		Limit:  &limit,
	})
	require.NoError(t, err)

	assert.Equal(t, []db.Row{
		{"name": "Eva", "status": "sold"},
		{"name": "Dag", "status": "new"},
	}, result.Rows)
}

func TestSelectAllReturnsSchemaColumns(t *testing.T) {
	fixture := newFixture(t)

	result, err := fixture.executor.Execute(context.Background(), query.Descriptor{
		Table:   db.TableUsers,
		Select:  "*",
		Filters: []query.Filter{{Column: "name", Operator: db.OperatorILike, Value: "%sven%"}},
	})
	require.NoError(t, err)

	require.Len(t, result.Rows, 1)
	row := result.Rows[0]
	table, _ := db.CRMSchema.Table(db.TableUsers)
	for _, column := range table.ColumnNames() {
		assert.Contains(t, row, column)
	}
	assert.Equal(t, fixture.sven, row["id"])
}

func TestInFilter(t *testing.T) {
	fixture := newFixture(t)

	result, err := fixture.executor.Execute(context.Background(), query.Descriptor{
		Table:  db.TableLeads,
		Select: "count",
		Filters: []query.Filter{
			{Column: "status", Operator: db.OperatorIn, Value: []any{"sold", "new"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []db.Row{{"count": int64(3)}}, result.Rows)
}

func TestLookupResolvesPartialName(t *testing.T) {
	fixture := newFixture(t)

	result, err := fixture.executor.Execute(context.Background(), query.Descriptor{
		Table:  db.TableLeads,
		Select: "count",
		Filters: []query.Filter{
			{Column: "booker_id", Operator: db.OperatorEqual, Value: "lookup:booker:chicko"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []db.Row{{"count": int64(2)}}, result.Rows)
	assert.Empty(t, result.Unresolved)
}

func TestUnresolvedLookupIsDroppedFromFilters(t *testing.T) {
	fixture := newFixture(t)
	ctx := context.Background()

	unfiltered, err := fixture.executor.Execute(ctx, query.Descriptor{
		Table:  db.TableLeads,
		Select: "name",
	})
	require.NoError(t, err)

	withLookup, err := fixture.executor.Execute(ctx, query.Descriptor{
		Table:  db.TableLeads,
		Select: "name",
		Filters: []query.Filter{
			{Column: "booker_id", Operator: db.OperatorEqual, Value: "LOOKUP:Nonexistent"},
		},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, unfiltered.Rows, withLookup.Rows)
	assert.Equal(t, []string{"Nonexistent"}, withLookup.Unresolved)
}

func TestInvalidQueryErrors(t *testing.T) {
	fixture := newFixture(t)
	negative := -1
	zero := 0

	tests := []struct {
		name       string
		descriptor query.Descriptor
	}{
		{"unknown table", query.Descriptor{Table: "passwords", Select: "*"}},
		{"unknown column", query.Descriptor{Table: db.TableLeads, Select: "name, salary"}},
		{"unknown filter column", query.Descriptor{
			Table:   db.TableLeads,
			Select:  "count",
			Filters: []query.Filter{{Column: "salary", Operator: db.OperatorEqual, Value: 1}},
		}},
		{"invalid operator", query.Descriptor{
			Table:   db.TableLeads,
			Select:  "count",
			Filters: []query.Filter{{Column: "name", Value: "x"}},
		}},
		{"multiple aggregates", query.Descriptor{Table: db.TableSales, Select: "sum(amount), max(amount)"}},
		{"aggregate with columns", query.Descriptor{Table: db.TableSales, Select: "sum(amount), lead_id"}},
		{"non-numeric aggregate", query.Descriptor{Table: db.TableSales, Select: "sum(payment_type)"}},
		{"unknown function", query.Descriptor{Table: db.TableSales, Select: "median(amount)"}},
		{"unknown order column", query.Descriptor{
			Table:  db.TableLeads,
			Select: "name",
			Order:  &query.Order{Column: "salary"},
		}},
		{"negative limit", query.Descriptor{Table: db.TableLeads, Select: "name", Limit: &negative}},
		{"zero limit", query.Descriptor{Table: db.TableLeads, Select: "name", Limit: &zero}},
		{"name where an id belongs", query.Descriptor{
			Table:   db.TableLeads,
			Select:  "count",
			Filters: []query.Filter{{Column: "booker_id", Operator: db.OperatorEqual, Value: "Anna"}},
		}},
		{"uncoercible value", query.Descriptor{
			Table:   db.TableLeads,
			Select:  "count",
			Filters: []query.Filter{{Column: "booked_at", Operator: db.OperatorGreaterThan, Value: "yesterday"}},
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := fixture.executor.Execute(context.Background(), test.descriptor)

			var invalidQueryErr *apperr.InvalidQueryError
			assert.ErrorAs(t, err, &invalidQueryErr)
			assert.Equal(t, http.StatusInternalServerError, apperr.HTTPStatus(err))
		})
	}
}

func TestDescriptorFromJSON(t *testing.T) {
	const generated = `{
		"table": "leads",
		"select": ["name", "status"],
		"filters": [{"column": "status", "operator": "in", "value": ["booked", "sold"]}],
		"order": {"column": "name", "ascending": true},
		"limit": 5,
		"explanation": "Booked and sold leads"
	}`

	var descriptor query.Descriptor
	require.NoError(t, json.Unmarshal([]byte(generated), &descriptor))

	assert.Equal(t, query.Projection("name, status"), descriptor.Select)
	assert.Equal(t, db.OperatorIn, descriptor.Filters[0].Operator)
	assert.Equal(t, []any{"booked", "sold"}, descriptor.Filters[0].Value)
	require.NotNil(t, descriptor.Limit)
	assert.Equal(t, 5, *descriptor.Limit)
	assert.True(t, descriptor.Order.Ascending)
}
