// Package sqlquery renders db.SelectQuery values as parameterized SQL for the SQL-based stores.
package sqlquery

import (
	"fmt"
	"strconv"
	"strings"

	"hermannm.dev/leadquery/db"
	"hermannm.dev/wrap"
)

// Dialect captures the differences between the SQL stores.
type Dialect struct {
	IdentifierQuote rune
	CountExpression string
	// Writes a case-sensitive (like) or case-insensitive (ilike) pattern match of the given
	// quoted column against a single placeholder.
	WritePattern func(builder *QueryBuilder, quotedColumn string, caseInsensitive bool)
	// Converts a coerced filter value into a driver argument. May be nil.
	BindValue func(value any) any
}

type QueryBuilder struct {
	strings.Builder
	dialect Dialect
	args    []any
}

func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: dialect}
}

func (builder *QueryBuilder) Args() []any {
	return builder.args
}

func (builder *QueryBuilder) WriteInt(i int) {
	builder.WriteString(strconv.Itoa(i))
}

// Must only be called after calling ValidateIdentifier/ValidateIdentifiers on the given identifier.
func (builder *QueryBuilder) WriteIdentifier(identifier string) {
	builder.WriteRune(builder.dialect.IdentifierQuote)
	builder.WriteString(identifier)
	builder.WriteRune(builder.dialect.IdentifierQuote)
}

func (builder *QueryBuilder) QuotedIdentifier(identifier string) string {
	quote := string(builder.dialect.IdentifierQuote)
	return quote + identifier + quote
}

// WritePlaceholder writes a '?' and records value as its argument.
func (builder *QueryBuilder) WritePlaceholder(value any) {
	if builder.dialect.BindValue != nil {
		value = builder.dialect.BindValue(value)
	}
	builder.args = append(builder.args, value)
	builder.WriteRune('?')
}

func (builder *QueryBuilder) ValidateIdentifier(identifier string) error {
	if identifier == "" {
		return fmt.Errorf("identifier is blank")
	}
	if strings.ContainsRune(identifier, builder.dialect.IdentifierQuote) {
		return fmt.Errorf(
			"'%s' contains %c, which is incompatible with database",
			identifier,
			builder.dialect.IdentifierQuote,
		)
	}
	return nil
}

func (builder *QueryBuilder) ValidateIdentifiers(identifiers ...string) error {
	for _, identifier := range identifiers {
		if err := builder.ValidateIdentifier(identifier); err != nil {
			return err
		}
	}
	return nil
}

func (builder *QueryBuilder) WriteWhere(filters []db.Filter) error {
	if len(filters) == 0 {
		return nil
	}

	builder.WriteString(" WHERE ")
	for i, filter := range filters {
		if i != 0 {
			builder.WriteString(" AND ")
		}
		if err := builder.WriteFilter(filter); err != nil {
			return wrap.Errorf(err, "invalid filter on column '%s'", filter.Column)
		}
	}
	return nil
}

func (builder *QueryBuilder) WriteFilter(filter db.Filter) error {
	if err := builder.ValidateIdentifier(filter.Column); err != nil {
		return err
	}
	column := builder.QuotedIdentifier(filter.Column)

	builder.WriteRune('(')
	defer builder.WriteRune(')')

	switch filter.Operator {
	case db.OperatorLike, db.OperatorILike:
		builder.dialect.WritePattern(builder, column, filter.Operator == db.OperatorILike)
		builder.args = append(builder.args, filter.Value)
		return nil
	case db.OperatorIn:
		values, err := filter.InValues()
		if err != nil {
			return err
		}
		builder.WriteString(column)
		builder.WriteString(" IN (")
		for i, value := range values {
			if i != 0 {
				builder.WriteString(", ")
			}
			builder.WritePlaceholder(value)
		}
		builder.WriteRune(')')
		return nil
	}

	comparison, ok := filter.Operator.SQL()
	if !ok {
		return fmt.Errorf("unsupported operator %v", filter.Operator)
	}

	if filter.Value == nil {
		switch filter.Operator {
		case db.OperatorEqual:
			builder.WriteString(column)
			builder.WriteString(" IS NULL")
			return nil
		case db.OperatorNotEqual:
			builder.WriteString(column)
			builder.WriteString(" IS NOT NULL")
			return nil
		default:
			return fmt.Errorf("operator %v cannot compare against null", filter.Operator)
		}
	}

	builder.WriteString(column)
	builder.WriteRune(' ')
	builder.WriteString(comparison)
	builder.WriteRune(' ')
	builder.WritePlaceholder(filter.Value)
	return nil
}

// BuildSelect renders query with the given column list, or * if columns is empty.
func BuildSelect(dialect Dialect, query db.SelectQuery, columns []string) (string, []any, error) {
	if err := query.Validate(); err != nil {
		return "", nil, err
	}

	builder := NewQueryBuilder(dialect)
	if err := builder.ValidateIdentifiers(append([]string{query.Table}, columns...)...); err != nil {
		return "", nil, wrap.Error(err, "invalid table/column name in query")
	}

	builder.WriteString("SELECT ")
	if len(columns) == 0 {
		builder.WriteRune('*')
	}
	for i, column := range columns {
		if i != 0 {
			builder.WriteString(", ")
		}
		builder.WriteIdentifier(column)
	}

	builder.WriteString(" FROM ")
	builder.WriteIdentifier(query.Table)

	if err := builder.WriteWhere(query.Filters); err != nil {
		return "", nil, err
	}

	if query.Order != nil {
		if err := builder.ValidateIdentifier(query.Order.Column); err != nil {
			return "", nil, wrap.Error(err, "invalid order column")
		}
		builder.WriteString(" ORDER BY ")
		builder.WriteIdentifier(query.Order.Column)
		if query.Order.SortOrder == db.SortOrderDescending {
			builder.WriteString(" DESC")
		} else {
			builder.WriteString(" ASC")
		}
	}

	if query.Limit > 0 {
		builder.WriteString(" LIMIT ")
		builder.WriteInt(query.Limit)
	}

	return builder.String(), builder.Args(), nil
}

func BuildCount(dialect Dialect, table string, filters []db.Filter) (string, []any, error) {
	builder := NewQueryBuilder(dialect)
	if err := builder.ValidateIdentifier(table); err != nil {
		return "", nil, wrap.Error(err, "invalid table name")
	}

	builder.WriteString("SELECT ")
	builder.WriteString(dialect.CountExpression)
	builder.WriteString(" FROM ")
	builder.WriteIdentifier(table)

	if err := builder.WriteWhere(filters); err != nil {
		return "", nil, err
	}

	return builder.String(), builder.Args(), nil
}
