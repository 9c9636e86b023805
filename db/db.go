package db

import (
	"context"
)

// Store is the read-only view of the relational store that questions are answered against.
// Implemented for SQLite, ClickHouse and Elasticsearch. Aggregates are never pushed down to the
// store; callers compute them from selected rows.
type Store interface {
	// Select returns the rows of query.Table matching all filters, projected to query.Columns
	// (all schema columns if empty), ordered and limited if requested.
	Select(ctx context.Context, query SelectQuery) ([]Row, error)

	// Count returns the exact number of rows in table matching all filters.
	Count(ctx context.Context, table string, filters []Filter) (int64, error)

	Close() error
}
