package clickhouse

import (
	"hermannm.dev/enumnames"
	"hermannm.dev/leadquery/db"
)

// See https://clickhouse.com/docs/en/sql-reference/data-types
var clickhouseDataTypes = enumnames.NewMap(map[db.DataType]string{
	db.DataTypeInt:       "Int64",
	db.DataTypeFloat:     "Float64",
	db.DataTypeTimestamp: "DateTime64(3)",
	db.DataTypeUUID:      "UUID",
	db.DataTypeText:      "String",
	db.DataTypeBool:      "Bool",
})
