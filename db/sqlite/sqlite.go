// Package sqlite implements db.Store on SQLite, for local development and tests.
package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"hermannm.dev/devlog/log"
	"hermannm.dev/leadquery/db"
	"hermannm.dev/leadquery/db/sqlquery"
	"hermannm.dev/wrap"
	_ "modernc.org/sqlite"
)

// Timestamps are stored as fixed-width UTC text, so that lexical comparison in filters and
// ordering matches chronological order.
const TimeLayout = "2006-01-02T15:04:05.000Z"

type SQLiteDB struct {
	conn *sql.DB
}

// Applied to every connection, so that like is case-sensitive and ilike is not.
const connectionPragmas = "_pragma=case_sensitive_like(1)"

func NewSQLiteDB(ctx context.Context, path string) (SQLiteDB, error) {
	dataSource := path + "?" + connectionPragmas
	if strings.Contains(path, "?") {
		dataSource = path + "&" + connectionPragmas
	}

	conn, err := sql.Open("sqlite", dataSource)
	if err != nil {
		return SQLiteDB{}, wrap.Errorf(err, "failed to open SQLite database '%s'", path)
	}

	// Every connection to :memory: opens a separate database.
	if path == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return SQLiteDB{}, wrap.Error(err, "failed to ping SQLite database")
	}

	return SQLiteDB{conn: conn}, nil
}

// Identifiers are quoted with backticks, since SQLite reads an unknown double-quoted identifier as
// a string literal instead of failing.
var dialect = sqlquery.Dialect{
	IdentifierQuote: '`',
	CountExpression: "COUNT(*)",
	WritePattern: func(builder *sqlquery.QueryBuilder, quotedColumn string, caseInsensitive bool) {
		if caseInsensitive {
			builder.WriteString("LOWER(")
			builder.WriteString(quotedColumn)
			builder.WriteString(") LIKE LOWER(?)")
		} else {
			builder.WriteString(quotedColumn)
			builder.WriteString(" LIKE ?")
		}
	},
	BindValue: bindValue,
}

func bindValue(value any) any {
	switch value := value.(type) {
	case time.Time:
		return value.UTC().Format(TimeLayout)
	case bool:
		if value {
			return int64(1)
		}
		return int64(0)
	default:
		return value
	}
}

func (sqlite SQLiteDB) Select(ctx context.Context, query db.SelectQuery) ([]db.Row, error) {
	queryString, args, err := sqlquery.BuildSelect(dialect, query, query.Columns)
	if err != nil {
		return nil, wrap.Error(err, "failed to build select query")
	}

	log.Debug("generated sqlite query", slog.String("query", queryString))

	rows, err := sqlite.conn.QueryContext(ctx, queryString, args...)
	if err != nil {
		return nil, wrap.Error(err, "failed to execute query against SQLite")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, wrap.Error(err, "failed to get result columns")
	}

	result := make([]db.Row, 0)
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, wrap.Error(err, "failed to scan result row")
		}

		row := make(db.Row, len(columns))
		for i, column := range columns {
			if bytes, ok := values[i].([]byte); ok {
				row[column] = string(bytes)
			} else {
				row[column] = values[i]
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap.Error(err, "failed to read result rows")
	}

	return result, nil
}

func (sqlite SQLiteDB) Count(ctx context.Context, table string, filters []db.Filter) (int64, error) {
	queryString, args, err := sqlquery.BuildCount(dialect, table, filters)
	if err != nil {
		return 0, wrap.Error(err, "failed to build count query")
	}

	log.Debug("generated sqlite count query", slog.String("query", queryString))

	var count int64
	if err := sqlite.conn.QueryRowContext(ctx, queryString, args...).Scan(&count); err != nil {
		return 0, wrap.Error(err, "count query against SQLite failed")
	}

	return count, nil
}

func (sqlite SQLiteDB) Close() error {
	return sqlite.conn.Close()
}
