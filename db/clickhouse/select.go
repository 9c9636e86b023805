package clickhouse

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"hermannm.dev/devlog/log"
	"hermannm.dev/leadquery/db"
	"hermannm.dev/leadquery/db/sqlquery"
	"hermannm.dev/wrap"
)

var dialect = sqlquery.Dialect{
	IdentifierQuote: '`',
	CountExpression: "count()",
	// See https://clickhouse.com/docs/en/sql-reference/operators#like
	WritePattern: func(builder *sqlquery.QueryBuilder, quotedColumn string, caseInsensitive bool) {
		builder.WriteString(quotedColumn)
		if caseInsensitive {
			builder.WriteString(" ILIKE ?")
		} else {
			builder.WriteString(" LIKE ?")
		}
	},
}

func (clickhouse ClickHouseDB) Select(ctx context.Context, query db.SelectQuery) ([]db.Row, error) {
	queryString, args, err := sqlquery.BuildSelect(dialect, query, query.Columns)
	if err != nil {
		return nil, wrap.Error(err, "failed to build select query")
	}

	log.Debug("generated clickhouse query", slog.String("query", queryString))

	rows, err := clickhouse.conn.Query(ctx, queryString, args...)
	if err != nil {
		return nil, wrap.Error(err, "failed to execute query against ClickHouse")
	}
	defer rows.Close()

	result, err := parseRows(rows)
	if err != nil {
		return nil, wrap.Error(err, "failed to parse query result")
	}

	return result, nil
}

func parseRows(rows driver.Rows) ([]db.Row, error) {
	columnTypes := rows.ColumnTypes()
	result := make([]db.Row, 0)

	for rows.Next() {
		// ScanType is a pointer type for Nullable columns, so NULLs scan without error.
		values := make([]any, len(columnTypes))
		for i, columnType := range columnTypes {
			values[i] = reflect.New(columnType.ScanType()).Interface()
		}

		if err := rows.Scan(values...); err != nil {
			return nil, wrap.Error(err, "failed to scan result row")
		}

		row := make(db.Row, len(columnTypes))
		for i, columnType := range columnTypes {
			row[columnType.Name()] = dereference(values[i])
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, wrap.Error(err, "failed to read result rows")
	}

	return result, nil
}

func dereference(pointer any) any {
	value := reflect.ValueOf(pointer).Elem()
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}

	switch scanned := value.Interface().(type) {
	case uuid.UUID:
		return scanned.String()
	default:
		return scanned
	}
}

func (clickhouse ClickHouseDB) Count(
	ctx context.Context,
	table string,
	filters []db.Filter,
) (int64, error) {
	queryString, args, err := sqlquery.BuildCount(dialect, table, filters)
	if err != nil {
		return 0, wrap.Error(err, "failed to build count query")
	}

	log.Debug("generated clickhouse count query", slog.String("query", queryString))

	var count uint64
	if err := clickhouse.conn.QueryRow(ctx, queryString, args...).Scan(&count); err != nil {
		return 0, wrap.Error(err, "count query against ClickHouse failed")
	}

	return int64(count), nil
}
