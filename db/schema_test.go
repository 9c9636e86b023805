package db

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name     string
		dataType DataType
		value    any
		want     any
	}{
		{"nil passes through", DataTypeInt, nil, nil},
		{"text from number", DataTypeText, 42.0, "42"},
		{"integer from JSON float", DataTypeInt, 3.0, int64(3)},
		{"integer from string", DataTypeInt, "12", int64(12)},
		{"float from json.Number", DataTypeFloat, json.Number("2.5"), 2.5},
		{"bool from string", DataTypeBool, "true", true},
		{"uuid", DataTypeUUID, "6f1c1f8e-3b9a-4a52-9a43-0e5c1f6f6b11", "6f1c1f8e-3b9a-4a52-9a43-0e5c1f6f6b11"},
		{"uuid pattern", DataTypeUUID, "6f1c%", "6f1c%"},
		{
			"date-only timestamp",
			DataTypeTimestamp,
			"2026-10-14",
			time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			"RFC3339 timestamp",
			DataTypeTimestamp,
			"2026-10-14T08:30:00Z",
			time.Date(2026, time.October, 14, 8, 30, 0, 0, time.UTC),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := test.dataType.Coerce(test.value)
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestCoerceRejectsMismatchedValues(t *testing.T) {
	tests := []struct {
		name     string
		dataType DataType
		value    any
	}{
		{"fractional integer", DataTypeInt, 3.5},
		{"non-numeric integer", DataTypeInt, "three"},
		{"non-numeric float", DataTypeFloat, true},
		{"malformed uuid", DataTypeUUID, "not-a-uuid"},
		{"malformed timestamp", DataTypeTimestamp, "yesterday"},
		{"malformed bool", DataTypeBool, "maybe"},
		{"invalid data type", DataType(0), "value"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := test.dataType.Coerce(test.value)
			assert.Error(t, err)
		})
	}
}

func TestCoerceFilters(t *testing.T) {
	sales, ok := CRMSchema.Table(TableSales)
	require.True(t, ok)

	filters, err := sales.CoerceFilters([]Filter{
		Gte("created_at", "2026-10-01"),
		In[any]("amount", "10", 20.0),
		{Column: "payment_type", Operator: OperatorILike, Value: "%card%"},
		Eq("user_id", nil),
	})
	require.NoError(t, err)
	require.Len(t, filters, 4)

	assert.Equal(t, time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC), filters[0].Value)
	assert.Equal(t, []any{10.0, 20.0}, filters[1].Value)
	assert.Equal(t, "%card%", filters[2].Value)
	assert.Nil(t, filters[3].Value)
}

func TestCoerceFiltersErrors(t *testing.T) {
	leads, ok := CRMSchema.Table(TableLeads)
	require.True(t, ok)

	tests := []struct {
		name   string
		filter Filter
	}{
		{"unknown column", Eq("budget", 100)},
		{"pattern on non-string", Filter{Column: "name", Operator: OperatorLike, Value: 5}},
		{"in without list", Filter{Column: "status", Operator: OperatorIn, Value: "booked"}},
		{"empty in list", In[string]("status")},
		{"invalid timestamp", Lte("booked_at", "soon")},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := leads.CoerceFilters([]Filter{test.filter})
			assert.Error(t, err)
		})
	}
}

func TestInValuesAcceptsStringSlice(t *testing.T) {
	filter := Filter{Column: "status", Operator: OperatorIn, Value: []string{"booked", "sold"}}

	values, err := filter.InValues()
	require.NoError(t, err)
	assert.Equal(t, []any{"booked", "sold"}, values)
}

func TestCRMSchemaIsValid(t *testing.T) {
	assert.NoError(t, CRMSchema.Validate())

	users, ok := CRMSchema.Table(TableUsers)
	require.True(t, ok)
	assert.Equal(t, []string{"id", "name", "email", "role", "created_at"}, users.ColumnNames())

	_, ok = CRMSchema.Table("payments")
	assert.False(t, ok)
}

func TestSchemaValidateCollectsErrors(t *testing.T) {
	schema := Schema{
		{Name: ""},
		{Name: "things", Columns: []Column{{Name: "", DataType: DataTypeText}, {Name: "x"}}},
	}

	err := schema.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schema")

	assert.NoError(t, Column{Name: "ok", DataType: DataTypeText}.Validate())
	assert.EqualError(t, Column{Name: "", DataType: DataTypeText}.Validate(), "column name is blank")
	assert.EqualError(t, Column{Name: "x"}.Validate(), "invalid column data type")
}

func TestOperatorJSON(t *testing.T) {
	var filter Filter
	require.NoError(t, json.Unmarshal([]byte(`{"column":"status","operator":"neq","value":"sold"}`), &filter))
	assert.Equal(t, OperatorNotEqual, filter.Operator)

	err := json.Unmarshal([]byte(`{"column":"status","operator":"between","value":1}`), &filter)
	assert.Error(t, err)
}

func TestAggregationKindFromName(t *testing.T) {
	kind, ok := AggregationKindFromName("avg")
	assert.True(t, ok)
	assert.Equal(t, AggregationAverage, kind)

	_, ok = AggregationKindFromName("median")
	assert.False(t, ok)
}
