package db

import (
	"errors"
	"fmt"

	"hermannm.dev/wrap"
)

type Schema []TableSchema

type TableSchema struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Columns     []Column `json:"columns"`
}

type Column struct {
	Name        string   `json:"name"`
	DataType    DataType `json:"dataType"`
	Optional    bool     `json:"optional"`
	Description string   `json:"description,omitempty"`
}

const (
	TableUsers = "users"
	TableLeads = "leads"
	TableSales = "sales"
)

const (
	LeadStatusNew      = "new"
	LeadStatusAssigned = "assigned"
	LeadStatusBooked   = "booked"
	LeadStatusAttended = "attended"
	LeadStatusNoShow   = "no_show"
	LeadStatusSold     = "sold"
	LeadStatusRejected = "rejected"
)

const (
	RoleBooker = "booker"
	RoleAdmin  = "admin"
	RoleCloser = "closer"
	RoleViewer = "viewer"
)

// CRMSchema is the allow-list of tables and columns that questions may be answered from.
// Descriptors referencing anything else are rejected before reaching the store.
var CRMSchema = Schema{
	{
		Name:        TableUsers,
		Description: "CRM staff accounts",
		Columns: []Column{
			{Name: "id", DataType: DataTypeUUID},
			{Name: "name", DataType: DataTypeText, Description: "full name"},
			{Name: "email", DataType: DataTypeText},
			{Name: "role", DataType: DataTypeText, Description: "booker, admin, closer or viewer"},
			{Name: "created_at", DataType: DataTypeTimestamp},
		},
	},
	{
		Name:        TableLeads,
		Description: "prospective customers, one row per lead",
		Columns: []Column{
			{Name: "id", DataType: DataTypeUUID},
			{Name: "name", DataType: DataTypeText},
			{Name: "phone", DataType: DataTypeText, Optional: true},
			{Name: "email", DataType: DataTypeText, Optional: true},
			{Name: "postcode", DataType: DataTypeText, Optional: true},
			{
				Name:        "status",
				DataType:    DataTypeText,
				Description: "new, assigned, booked, attended, no_show, sold or rejected",
			},
			{
				Name:        "booker_id",
				DataType:    DataTypeUUID,
				Optional:    true,
				Description: "users.id of the booker who booked the lead",
			},
			{Name: "assigned_at", DataType: DataTypeTimestamp, Optional: true},
			{Name: "booked_at", DataType: DataTypeTimestamp, Optional: true, Description: "when the booking was made"},
			{Name: "appointment_at", DataType: DataTypeTimestamp, Optional: true},
			{Name: "created_at", DataType: DataTypeTimestamp},
		},
	},
	{
		Name:        TableSales,
		Description: "completed sales, linked to the lead they came from",
		Columns: []Column{
			{Name: "id", DataType: DataTypeUUID},
			{Name: "lead_id", DataType: DataTypeUUID, Description: "leads.id"},
			{Name: "user_id", DataType: DataTypeUUID, Optional: true, Description: "users.id of the closer"},
			{Name: "amount", DataType: DataTypeFloat},
			{Name: "payment_type", DataType: DataTypeText, Optional: true},
			{Name: "created_at", DataType: DataTypeTimestamp},
		},
	},
}

func (schema Schema) Table(name string) (TableSchema, bool) {
	for _, table := range schema {
		if table.Name == name {
			return table, true
		}
	}
	return TableSchema{}, false
}

func (table TableSchema) Column(name string) (Column, bool) {
	for _, column := range table.Columns {
		if column.Name == name {
			return column, true
		}
	}
	return Column{}, false
}

func (table TableSchema) ColumnNames() []string {
	names := make([]string, len(table.Columns))
	for i, column := range table.Columns {
		names[i] = column.Name
	}
	return names
}

func (schema Schema) Validate() error {
	var errs []error

	for _, table := range schema {
		if table.Name == "" {
			errs = append(errs, errors.New("table name is blank"))
			continue
		}

		for i, column := range table.Columns {
			if err := column.Validate(); err != nil {
				errs = append(
					errs, fmt.Errorf("table '%s', column %d ('%s'): %w", table.Name, i, column.Name, err),
				)
			}
		}
	}

	if len(errs) != 0 {
		return wrap.Errors("invalid schema", errs...)
	}
	return nil
}

func (column Column) Validate() error {
	if column.Name == "" {
		return errors.New("column name is blank")
	}

	if !column.DataType.IsValid() {
		return errors.New("invalid column data type")
	}

	return nil
}

// CoerceFilters converts filter literals to the data types of their columns in the given table.
// Filters on unknown columns are returned as errors.
func (table TableSchema) CoerceFilters(filters []Filter) ([]Filter, error) {
	coerced := make([]Filter, len(filters))

	for i, filter := range filters {
		column, ok := table.Column(filter.Column)
		if !ok {
			return nil, fmt.Errorf("unknown column '%s' in table '%s'", filter.Column, table.Name)
		}

		if filter.Operator == OperatorIn {
			values, err := filter.InValues()
			if err != nil {
				return nil, err
			}

			converted := make([]any, len(values))
			for j, value := range values {
				if converted[j], err = column.DataType.Coerce(value); err != nil {
					return nil, wrap.Errorf(err, "invalid value in filter on column '%s'", column.Name)
				}
			}
			filter.Value = converted
		} else if filter.Operator == OperatorLike || filter.Operator == OperatorILike {
			pattern, ok := filter.Value.(string)
			if !ok {
				return nil, fmt.Errorf("pattern filter on column '%s' requires a string", column.Name)
			}
			filter.Value = pattern
		} else {
			value, err := column.DataType.Coerce(filter.Value)
			if err != nil {
				return nil, wrap.Errorf(err, "invalid value in filter on column '%s'", column.Name)
			}
			filter.Value = value
		}

		coerced[i] = filter
	}

	return coerced, nil
}
