package query

import (
	"context"
	"fmt"
	"log/slog"

	"hermannm.dev/devlog/log"
	"hermannm.dev/leadquery/apperr"
	"hermannm.dev/leadquery/db"
	"hermannm.dev/wrap"
)

type Executor struct {
	store   db.Store
	schema  db.Schema
	lookups LookupResolver
}

func NewExecutor(store db.Store) Executor {
	return Executor{store: store, schema: db.CRMSchema, lookups: NewLookupResolver(store)}
}

type Result struct {
	// For count queries, a single row {"count": n}. For aggregate queries, a single row mapping the
	// function name to its value.
	Rows []db.Row `json:"rows"`
	// Names from lookup tokens that matched nothing. Their filters were left out of the query.
	Unresolved []string `json:"unresolved,omitempty"`
}

func (executor Executor) Execute(ctx context.Context, descriptor Descriptor) (Result, error) {
	table, projection, err := validate(executor.schema, descriptor)
	if err != nil {
		return Result{}, err
	}

	resolved, unresolved := executor.lookups.Resolve(ctx, descriptor.Filters)

	filters := make([]db.Filter, len(resolved))
	for i, filter := range resolved {
		filters[i] = filter.toDB()
	}
	filters, err = table.CoerceFilters(filters)
	if err != nil {
		return Result{}, apperr.InvalidQuery(err, "Invalid filter in query")
	}

	if projection.kind != projectionColumns && (descriptor.Order != nil || descriptor.Limit != nil) {
		log.Warn(
			"ignoring order and limit on aggregate query",
			slog.String("select", string(descriptor.Select)),
		)
	}

	var rows []db.Row
	switch projection.kind {
	case projectionCount:
		rows, err = executor.count(ctx, table, projection, filters)
	case projectionAggregate:
		rows, err = executor.aggregate(ctx, table, projection, filters)
	case projectionColumns:
		rows, err = executor.project(ctx, table, projection, filters, descriptor)
	default:
		err = fmt.Errorf("unrecognized projection kind %d", projection.kind)
	}
	if err != nil {
		return Result{}, apperr.QueryExecution(err, "Query execution failed")
	}

	return Result{Rows: rows, Unresolved: unresolved}, nil
}

func (executor Executor) count(
	ctx context.Context,
	table db.TableSchema,
	projection parsedProjection,
	filters []db.Filter,
) ([]db.Row, error) {
	// count(column) counts non-null values only.
	if projection.column != "" {
		filters = append(filters, db.Filter{Column: projection.column, Operator: db.OperatorNotEqual})
	}

	count, err := executor.store.Count(ctx, table.Name, filters)
	if err != nil {
		return nil, wrap.Errorf(err, "failed to count rows in '%s'", table.Name)
	}

	return []db.Row{{db.AggregationCount.String(): count}}, nil
}

func (executor Executor) aggregate(
	ctx context.Context,
	table db.TableSchema,
	projection parsedProjection,
	filters []db.Filter,
) ([]db.Row, error) {
	rows, err := executor.store.Select(ctx, db.SelectQuery{
		Table:   table.Name,
		Columns: []string{projection.column},
		Filters: filters,
	})
	if err != nil {
		return nil, wrap.Errorf(err, "failed to select '%s' for %v", projection.column, projection.aggregation)
	}

	value, err := computeAggregate(projection.aggregation, projection.column, rows)
	if err != nil {
		return nil, err
	}

	return []db.Row{{projection.aggregation.String(): value}}, nil
}

func (executor Executor) project(
	ctx context.Context,
	table db.TableSchema,
	projection parsedProjection,
	filters []db.Filter,
	descriptor Descriptor,
) ([]db.Row, error) {
	query := db.SelectQuery{Table: table.Name, Columns: projection.columns, Filters: filters}
	if len(query.Columns) == 0 {
		query.Columns = table.ColumnNames()
	}
	if descriptor.Order != nil {
		query.Order = &db.Order{
			Column:    descriptor.Order.Column,
			SortOrder: db.SortOrderFromAscending(descriptor.Order.Ascending),
		}
	}
	if descriptor.Limit != nil {
		query.Limit = *descriptor.Limit
	}

	rows, err := executor.store.Select(ctx, query)
	if err != nil {
		return nil, wrap.Errorf(err, "failed to select from '%s'", table.Name)
	}
	return rows, nil
}

// computeAggregate skips NULL values. avg, min and max of no values are 0.
func computeAggregate(kind db.AggregationKind, column string, rows []db.Row) (float64, error) {
	var sum, minimum, maximum float64
	var count int

	for i, row := range rows {
		value := row[column]
		if value == nil {
			continue
		}

		number, ok := db.Float64(value)
		if !ok {
			return 0, fmt.Errorf("non-numeric value '%v' in column '%s' (row %d)", value, column, i)
		}

		if count == 0 || number < minimum {
			minimum = number
		}
		if count == 0 || number > maximum {
			maximum = number
		}
		sum += number
		count++
	}

	switch kind {
	case db.AggregationSum:
		return sum, nil
	case db.AggregationAverage:
		if count == 0 {
			return 0, nil
		}
		return sum / float64(count), nil
	case db.AggregationMin:
		return minimum, nil
	case db.AggregationMax:
		return maximum, nil
	case db.AggregationCount:
		return float64(count), nil
	default:
		return 0, fmt.Errorf("unsupported aggregation %v", kind)
	}
}
