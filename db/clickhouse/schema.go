package clickhouse

import (
	"context"
	"fmt"

	"hermannm.dev/leadquery/db"
	"hermannm.dev/leadquery/db/sqlquery"
	"hermannm.dev/wrap"
)

// CreateTables creates the given tables if they do not already exist, for bootstrapping
// development databases.
func (clickhouse ClickHouseDB) CreateTables(ctx context.Context, schema db.Schema) error {
	if err := schema.Validate(); err != nil {
		return err
	}

	for _, table := range schema {
		query, err := buildCreateTableQuery(table)
		if err != nil {
			return wrap.Errorf(err, "failed to build create table query for '%s'", table.Name)
		}

		if err := clickhouse.conn.Exec(ctx, query); err != nil {
			return wrap.Errorf(err, "create table query failed for '%s'", table.Name)
		}
	}

	return nil
}

func buildCreateTableQuery(table db.TableSchema) (string, error) {
	builder := sqlquery.NewQueryBuilder(dialect)
	if err := builder.ValidateIdentifier(table.Name); err != nil {
		return "", wrap.Error(err, "invalid table name")
	}

	builder.WriteString("CREATE TABLE IF NOT EXISTS ")
	builder.WriteIdentifier(table.Name)
	builder.WriteString(" (")

	for i, column := range table.Columns {
		if err := builder.ValidateIdentifier(column.Name); err != nil {
			return "", wrap.Error(err, "invalid column name")
		}
		builder.WriteIdentifier(column.Name)
		builder.WriteRune(' ')

		dataType, ok := clickhouseDataTypes.GetName(column.DataType)
		if !ok {
			return "", fmt.Errorf("invalid data type '%v' in column '%s'", column.DataType, column.Name)
		}
		builder.WriteString(dataType)

		if column.Optional {
			builder.WriteString(" NULL")
		}

		if i != len(table.Columns)-1 {
			builder.WriteString(", ")
		}
	}
	builder.WriteRune(')')
	builder.WriteString(" ENGINE = MergeTree()")
	builder.WriteString(" PRIMARY KEY (id)")

	return builder.String(), nil
}
