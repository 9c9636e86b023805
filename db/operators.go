package db

import (
	"hermannm.dev/enumnames"
)

// Operator is a filter comparison. Each maps 1:1 onto a store-level comparison or pattern
// primitive.
type Operator uint8

const (
	OperatorEqual Operator = iota + 1
	OperatorNotEqual
	OperatorGreaterThan
	OperatorGreaterThanOrEqual
	OperatorLessThan
	OperatorLessThanOrEqual
	OperatorLike
	OperatorILike
	OperatorIn
)

var operatorNames = enumnames.NewMap(map[Operator]string{
	OperatorEqual:              "eq",
	OperatorNotEqual:           "neq",
	OperatorGreaterThan:        "gt",
	OperatorGreaterThanOrEqual: "gte",
	OperatorLessThan:           "lt",
	OperatorLessThanOrEqual:    "lte",
	OperatorLike:               "like",
	OperatorILike:              "ilike",
	OperatorIn:                 "in",
})

func (operator Operator) IsValid() bool {
	_, ok := operatorNames.GetName(operator)
	return ok
}

func (operator Operator) String() string {
	return operatorNames.GetNameOrFallback(operator, "[INVALID OPERATOR]")
}

func (operator Operator) MarshalJSON() ([]byte, error) {
	return operatorNames.MarshalToNameJSON(operator)
}

func (operator *Operator) UnmarshalJSON(bytes []byte) error {
	return operatorNames.UnmarshalFromNameJSON(bytes, operator)
}

// SQL returns the comparison operator for SQL stores. Pattern operators and IN are
// dialect-specific and handled by the stores themselves.
func (operator Operator) SQL() (string, bool) {
	switch operator {
	case OperatorEqual:
		return "=", true
	case OperatorNotEqual:
		return "!=", true
	case OperatorGreaterThan:
		return ">", true
	case OperatorGreaterThanOrEqual:
		return ">=", true
	case OperatorLessThan:
		return "<", true
	case OperatorLessThanOrEqual:
		return "<=", true
	default:
		return "", false
	}
}
