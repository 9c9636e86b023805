package sqlite

import (
	"context"

	"hermannm.dev/leadquery/db"
	"hermannm.dev/leadquery/db/sqlquery"
	"hermannm.dev/wrap"
)

// Timestamps and UUIDs are stored as TEXT, booleans as INTEGER.
var sqliteDataTypes = map[db.DataType]string{
	db.DataTypeText:      "TEXT",
	db.DataTypeInt:       "INTEGER",
	db.DataTypeFloat:     "REAL",
	db.DataTypeTimestamp: "TEXT",
	db.DataTypeUUID:      "TEXT",
	db.DataTypeBool:      "INTEGER",
}

// CreateTables creates the given tables if they do not already exist. Used to bootstrap local
// databases and test fixtures; the service itself never writes.
func (sqlite SQLiteDB) CreateTables(ctx context.Context, schema db.Schema) error {
	if err := schema.Validate(); err != nil {
		return err
	}

	for _, table := range schema {
		builder := sqlquery.NewQueryBuilder(dialect)
		if err := builder.ValidateIdentifier(table.Name); err != nil {
			return wrap.Error(err, "invalid table name")
		}

		builder.WriteString("CREATE TABLE IF NOT EXISTS ")
		builder.WriteIdentifier(table.Name)
		builder.WriteString(" (")

		for i, column := range table.Columns {
			if err := builder.ValidateIdentifier(column.Name); err != nil {
				return wrap.Error(err, "invalid column name")
			}

			builder.WriteIdentifier(column.Name)
			builder.WriteRune(' ')
			builder.WriteString(sqliteDataTypes[column.DataType])
			if !column.Optional {
				builder.WriteString(" NOT NULL")
			}
			if column.Name == "id" {
				builder.WriteString(" PRIMARY KEY")
			}

			if i != len(table.Columns)-1 {
				builder.WriteString(", ")
			}
		}
		builder.WriteRune(')')

		if _, err := sqlite.conn.ExecContext(ctx, builder.String()); err != nil {
			return wrap.Errorf(err, "create table query failed for '%s'", table.Name)
		}
	}

	return nil
}

// InsertRows inserts rows into table, converting values the same way as filter arguments.
func (sqlite SQLiteDB) InsertRows(ctx context.Context, table string, rows ...db.Row) error {
	for i, row := range rows {
		builder := sqlquery.NewQueryBuilder(dialect)
		if err := builder.ValidateIdentifier(table); err != nil {
			return wrap.Error(err, "invalid table name")
		}

		columns := make([]string, 0, len(row))
		for column := range row {
			if err := builder.ValidateIdentifier(column); err != nil {
				return wrap.Error(err, "invalid column name")
			}
			columns = append(columns, column)
		}

		builder.WriteString("INSERT INTO ")
		builder.WriteIdentifier(table)
		builder.WriteString(" (")
		for j, column := range columns {
			if j != 0 {
				builder.WriteString(", ")
			}
			builder.WriteIdentifier(column)
		}
		builder.WriteString(") VALUES (")
		for j, column := range columns {
			if j != 0 {
				builder.WriteString(", ")
			}
			builder.WritePlaceholder(row[column])
		}
		builder.WriteRune(')')

		if _, err := sqlite.conn.ExecContext(ctx, builder.String(), builder.Args()...); err != nil {
			return wrap.Errorf(err, "failed to insert row %d into '%s'", i, table)
		}
	}

	return nil
}
