package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"hermannm.dev/leadquery/db"
)

func TestParseLookupToken(t *testing.T) {
	tests := []struct {
		value   any
		want    LookupToken
		isToken bool
	}{
		{"lookup:booker:Chicko", LookupToken{Kind: "booker", Name: "Chicko"}, true},
		{"LOOKUP:Nonexistent", LookupToken{Name: "Nonexistent"}, true},
		{"Lookup:User: Sven Olsen ", LookupToken{Kind: "user", Name: "Sven Olsen"}, true},
		{"Chicko", LookupToken{}, false},
		{"look", LookupToken{}, false},
		{42, LookupToken{}, false},
		{nil, LookupToken{}, false},
	}

	for _, test := range tests {
		token, isToken := ParseLookupToken(test.value)
		assert.Equal(t, test.isToken, isToken, "%v", test.value)
		assert.Equal(t, test.want, token, "%v", test.value)
	}
}

func TestParseProjection(t *testing.T) {
	tests := []struct {
		projection Projection
		want       parsedProjection
	}{
		{"", parsedProjection{kind: projectionColumns}},
		{"*", parsedProjection{kind: projectionColumns}},
		{"count", parsedProjection{kind: projectionCount, aggregation: db.AggregationCount}},
		{"COUNT(*)", parsedProjection{kind: projectionCount, aggregation: db.AggregationCount}},
		{"count(id)", parsedProjection{kind: projectionCount, aggregation: db.AggregationCount, column: "id"}},
		{"avg(amount)", parsedProjection{kind: projectionAggregate, aggregation: db.AggregationAverage, column: "amount"}},
		{"name, status", parsedProjection{kind: projectionColumns, columns: []string{"name", "status"}}},
	}

	for _, test := range tests {
		parsed, err := parseProjection(test.projection)
		if assert.NoError(t, err, test.projection) {
			assert.Equal(t, test.want, parsed, test.projection)
		}
	}
}
