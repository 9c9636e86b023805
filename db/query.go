package db

import (
	"errors"
	"fmt"
)

type SelectQuery struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
	Filters []Filter `json:"filters"`
	// May be nil, in which case rows are returned in store order.
	Order *Order `json:"order,omitempty"`
	// 0 means no limit.
	Limit int `json:"limit,omitempty"`
}

type Filter struct {
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	// For OperatorIn, a []any of candidate values.
	Value any `json:"value"`
}

type Order struct {
	Column    string    `json:"column"`
	SortOrder SortOrder `json:"sortOrder"`
}

// Row maps column names to values as returned by the store driver.
type Row map[string]any

func Eq(column string, value any) Filter {
	return Filter{Column: column, Operator: OperatorEqual, Value: value}
}

func Gte(column string, value any) Filter {
	return Filter{Column: column, Operator: OperatorGreaterThanOrEqual, Value: value}
}

func Lte(column string, value any) Filter {
	return Filter{Column: column, Operator: OperatorLessThanOrEqual, Value: value}
}

func In[T any](column string, values ...T) Filter {
	list := make([]any, len(values))
	for i, value := range values {
		list[i] = value
	}
	return Filter{Column: column, Operator: OperatorIn, Value: list}
}

// InValues returns the candidate list of an IN filter.
func (filter Filter) InValues() ([]any, error) {
	switch values := filter.Value.(type) {
	case []any:
		if len(values) == 0 {
			return nil, fmt.Errorf("empty value list for 'in' filter on column '%s'", filter.Column)
		}
		return values, nil
	case []string:
		if len(values) == 0 {
			return nil, fmt.Errorf("empty value list for 'in' filter on column '%s'", filter.Column)
		}
		list := make([]any, len(values))
		for i, value := range values {
			list[i] = value
		}
		return list, nil
	default:
		return nil, fmt.Errorf(
			"'in' filter on column '%s' requires a list value, got %T", filter.Column, filter.Value,
		)
	}
}

func (query SelectQuery) Validate() error {
	if query.Table == "" {
		return errors.New("missing table name")
	}
	if query.Limit < 0 {
		return fmt.Errorf("negative limit %d", query.Limit)
	}
	for _, filter := range query.Filters {
		if !filter.Operator.IsValid() {
			return fmt.Errorf("invalid operator on column '%s'", filter.Column)
		}
	}
	if query.Order != nil && !query.Order.SortOrder.IsValid() {
		return fmt.Errorf("invalid sort order on column '%s'", query.Order.Column)
	}
	return nil
}
