package db

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"hermannm.dev/enumnames"
	"hermannm.dev/wrap"
)

type DataType uint8

const (
	DataTypeText DataType = iota + 1
	DataTypeInt
	DataTypeFloat
	DataTypeTimestamp
	DataTypeUUID
	DataTypeBool
)

var dataTypeNames = enumnames.NewMap(map[DataType]string{
	DataTypeText:      "TEXT",
	DataTypeInt:       "INTEGER",
	DataTypeFloat:     "FLOAT",
	DataTypeTimestamp: "TIMESTAMP",
	DataTypeUUID:      "UUID",
	DataTypeBool:      "BOOLEAN",
})

func (dataType DataType) IsValid() bool {
	_, ok := dataTypeNames.GetName(dataType)
	return ok
}

func (dataType DataType) String() string {
	return dataTypeNames.GetNameOrFallback(dataType, "INVALID_DATA_TYPE")
}

func (dataType DataType) MarshalJSON() ([]byte, error) {
	return dataTypeNames.MarshalToNameJSON(dataType)
}

func (dataType *DataType) UnmarshalJSON(bytes []byte) error {
	return dataTypeNames.UnmarshalFromNameJSON(bytes, dataType)
}

// Date-only values are accepted for timestamps, since generated filters commonly compare against
// a plain date.
var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// Coerce converts a filter literal (typically decoded from JSON) to the Go type that the stores
// expect for columns of this data type. nil passes through unchanged.
func (dataType DataType) Coerce(value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch dataType {
	case DataTypeText:
		switch value := value.(type) {
		case string:
			return value, nil
		case fmt.Stringer:
			return value.String(), nil
		default:
			return fmt.Sprint(value), nil
		}
	case DataTypeUUID:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string UUID, got %T", value)
		}
		// Wildcard patterns against UUID columns are passed through as-is.
		if strings.ContainsAny(str, "%_") {
			return str, nil
		}
		if _, err := uuid.Parse(str); err != nil {
			return nil, wrap.Errorf(err, "invalid UUID '%s'", str)
		}
		return str, nil
	case DataTypeInt:
		number, ok := Float64(value)
		if !ok {
			return nil, fmt.Errorf("expected integer, got '%v'", value)
		}
		if number != math.Trunc(number) {
			return nil, fmt.Errorf("expected integer, got %v", number)
		}
		return int64(number), nil
	case DataTypeFloat:
		number, ok := Float64(value)
		if !ok {
			return nil, fmt.Errorf("expected number, got '%v'", value)
		}
		return number, nil
	case DataTypeBool:
		switch value := value.(type) {
		case bool:
			return value, nil
		case string:
			parsed, err := strconv.ParseBool(value)
			if err != nil {
				return nil, wrap.Errorf(err, "invalid boolean '%s'", value)
			}
			return parsed, nil
		default:
			return nil, fmt.Errorf("expected boolean, got %T", value)
		}
	case DataTypeTimestamp:
		switch value := value.(type) {
		case time.Time:
			return value, nil
		case string:
			for _, layout := range timestampLayouts {
				if parsed, err := time.Parse(layout, value); err == nil {
					return parsed, nil
				}
			}
			return nil, fmt.Errorf("invalid timestamp '%s'", value)
		default:
			return nil, fmt.Errorf("expected timestamp string, got %T", value)
		}
	}

	return nil, fmt.Errorf("unrecognized data type %v", dataType)
}

// Float64 converts numeric values as returned by the store drivers or decoded from JSON.
func Float64(value any) (float64, bool) {
	switch value := value.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int8:
		return float64(value), true
	case int16:
		return float64(value), true
	case int32:
		return float64(value), true
	case int64:
		return float64(value), true
	case uint:
		return float64(value), true
	case uint8:
		return float64(value), true
	case uint16:
		return float64(value), true
	case uint32:
		return float64(value), true
	case uint64:
		return float64(value), true
	case json.Number:
		number, err := value.Float64()
		return number, err == nil
	case string:
		number, err := strconv.ParseFloat(value, 64)
		return number, err == nil
	case []byte:
		number, err := strconv.ParseFloat(string(value), 64)
		return number, err == nil
	default:
		return 0, false
	}
}
