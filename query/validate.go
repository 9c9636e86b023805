package query

import (
	"fmt"

	"hermannm.dev/leadquery/apperr"
	"hermannm.dev/leadquery/db"
)

// validate checks descriptor against the tables and columns in schema before anything reaches
// the store.
func validate(schema db.Schema, descriptor Descriptor) (db.TableSchema, parsedProjection, error) {
	table, ok := schema.Table(descriptor.Table)
	if !ok {
		return db.TableSchema{}, parsedProjection{}, apperr.InvalidQuery(
			nil, "Unknown table '%s' in query", descriptor.Table,
		)
	}

	projection, err := parseProjection(descriptor.Select)
	if err != nil {
		return db.TableSchema{}, parsedProjection{}, apperr.InvalidQuery(err, "Invalid select in query")
	}

	if err := validateProjection(table, projection); err != nil {
		return db.TableSchema{}, parsedProjection{}, apperr.InvalidQuery(err, "Invalid select in query")
	}

	for _, filter := range descriptor.Filters {
		if _, ok := table.Column(filter.Column); !ok {
			return db.TableSchema{}, parsedProjection{}, apperr.InvalidQuery(
				nil, "Unknown column '%s' in filter on table '%s'", filter.Column, table.Name,
			)
		}
		if !filter.Operator.IsValid() {
			return db.TableSchema{}, parsedProjection{}, apperr.InvalidQuery(
				nil, "Invalid operator in filter on column '%s'", filter.Column,
			)
		}
	}

	if descriptor.Order != nil {
		if _, ok := table.Column(descriptor.Order.Column); !ok {
			return db.TableSchema{}, parsedProjection{}, apperr.InvalidQuery(
				nil, "Unknown order column '%s' on table '%s'", descriptor.Order.Column, table.Name,
			)
		}
	}

	// A zero limit would otherwise read as "no limit" in db.SelectQuery.
	if descriptor.Limit != nil && *descriptor.Limit < 1 {
		return db.TableSchema{}, parsedProjection{}, apperr.InvalidQuery(
			nil, "Query limit must be positive (got %d)", *descriptor.Limit,
		)
	}

	return table, projection, nil
}

func validateProjection(table db.TableSchema, projection parsedProjection) error {
	switch projection.kind {
	case projectionColumns:
		for _, column := range projection.columns {
			if _, ok := table.Column(column); !ok {
				return fmt.Errorf("unknown column '%s' on table '%s'", column, table.Name)
			}
		}
	case projectionCount:
		if projection.column != "" {
			if _, ok := table.Column(projection.column); !ok {
				return fmt.Errorf("unknown column '%s' on table '%s'", projection.column, table.Name)
			}
		}
	case projectionAggregate:
		column, ok := table.Column(projection.column)
		if !ok {
			return fmt.Errorf("unknown column '%s' on table '%s'", projection.column, table.Name)
		}
		if column.DataType != db.DataTypeInt && column.DataType != db.DataTypeFloat {
			return fmt.Errorf(
				"%v requires a numeric column, but '%s' is %v",
				projection.aggregation,
				column.Name,
				column.DataType,
			)
		}
	}
	return nil
}
