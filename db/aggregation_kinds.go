package db

import (
	"hermannm.dev/enumnames"
)

// AggregationKind is an aggregate function that may appear in a descriptor's select. Aggregates
// are computed in memory by the query executor, never by the store.
type AggregationKind int8

const (
	AggregationSum AggregationKind = iota + 1
	AggregationAverage
	AggregationMin
	AggregationMax
	AggregationCount
)

var aggregationMap = enumnames.NewMap(map[AggregationKind]string{
	AggregationSum:     "sum",
	AggregationAverage: "avg",
	AggregationMin:     "min",
	AggregationMax:     "max",
	AggregationCount:   "count",
})

func AggregationKindFromName(name string) (AggregationKind, bool) {
	for _, kind := range []AggregationKind{
		AggregationSum, AggregationAverage, AggregationMin, AggregationMax, AggregationCount,
	} {
		if kind.String() == name {
			return kind, true
		}
	}
	return 0, false
}

func (kind AggregationKind) IsValid() bool {
	_, ok := aggregationMap.GetName(kind)
	return ok
}

func (kind AggregationKind) String() string {
	return aggregationMap.GetNameOrFallback(kind, "INVALID_AGGREGATION")
}

func (kind AggregationKind) MarshalJSON() ([]byte, error) {
	return aggregationMap.MarshalToNameJSON(kind)
}

func (kind *AggregationKind) UnmarshalJSON(bytes []byte) error {
	return aggregationMap.UnmarshalFromNameJSON(bytes, kind)
}
