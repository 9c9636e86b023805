package query

import (
	"fmt"
	"regexp"
	"strings"

	"hermannm.dev/leadquery/db"
)

type projectionKind uint8

const (
	projectionColumns projectionKind = iota + 1
	projectionCount
	projectionAggregate
)

type parsedProjection struct {
	kind projectionKind
	// All schema columns if empty.
	columns []string
	// For projectionAggregate, and for projectionCount over a single column.
	aggregation db.AggregationKind
	column      string
}

var aggregatePattern = regexp.MustCompile(`^([a-zA-Z]+)\s*\(\s*([a-zA-Z0-9_*]*)\s*\)$`)

func parseProjection(projection Projection) (parsedProjection, error) {
	trimmed := strings.TrimSpace(string(projection))
	if trimmed == "" || trimmed == "*" {
		return parsedProjection{kind: projectionColumns}, nil
	}
	if strings.EqualFold(trimmed, "count") {
		return parsedProjection{kind: projectionCount, aggregation: db.AggregationCount}, nil
	}

	items := strings.Split(trimmed, ",")
	var aggregates []parsedProjection
	var columns []string

	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			return parsedProjection{}, fmt.Errorf("empty column in select '%s'", projection)
		}

		match := aggregatePattern.FindStringSubmatch(item)
		if match == nil {
			columns = append(columns, item)
			continue
		}

		kind, ok := db.AggregationKindFromName(strings.ToLower(match[1]))
		if !ok {
			return parsedProjection{}, fmt.Errorf("unsupported function '%s' in select", match[1])
		}

		column := match[2]
		if kind == db.AggregationCount {
			if column == "*" {
				column = ""
			}
			aggregates = append(
				aggregates,
				parsedProjection{kind: projectionCount, aggregation: kind, column: column},
			)
			continue
		}

		if column == "" || column == "*" {
			return parsedProjection{}, fmt.Errorf("%v requires a column", kind)
		}
		aggregates = append(
			aggregates,
			parsedProjection{kind: projectionAggregate, aggregation: kind, column: column},
		)
	}

	switch {
	case len(aggregates) > 1:
		return parsedProjection{}, fmt.Errorf(
			"select '%s' has %d aggregate functions, at most one is allowed",
			projection,
			len(aggregates),
		)
	case len(aggregates) == 1 && len(columns) != 0:
		return parsedProjection{}, fmt.Errorf(
			"select '%s' mixes an aggregate function with plain columns",
			projection,
		)
	case len(aggregates) == 1:
		return aggregates[0], nil
	default:
		return parsedProjection{kind: projectionColumns, columns: columns}, nil
	}
}
