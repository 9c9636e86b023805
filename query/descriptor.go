// Package query implements the query descriptor language that generated questions are
// expressed in, and executes descriptors against a db.Store.
package query

import (
	"bytes"
	"encoding/json"
	"strings"

	"hermannm.dev/leadquery/db"
)

// Descriptor is the structured form of a read-only query.
type Descriptor struct {
	Table  string     `json:"table"`
	Select Projection `json:"select"`
	// Filter values may be lookup tokens, see ParseLookupToken.
	Filters     []Filter `json:"filters"`
	Order       *Order   `json:"order,omitempty"`
	Limit       *int     `json:"limit,omitempty"`
	Explanation string   `json:"explanation"`
}

type Filter struct {
	Column   string      `json:"column"`
	Operator db.Operator `json:"operator"`
	Value    any         `json:"value"`
}

type Order struct {
	Column    string `json:"column"`
	Ascending bool   `json:"ascending"`
}

// Projection is a descriptor's select clause: "*", a comma-separated column list, or a single
// aggregate such as "count", "count(*)" or "sum(amount)". A JSON array of column names is also
// accepted, and joined with commas.
type Projection string

func (projection *Projection) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) != 0 && data[0] == '[' {
		var columns []string
		if err := json.Unmarshal(data, &columns); err != nil {
			return err
		}
		*projection = Projection(strings.Join(columns, ", "))
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*projection = Projection(str)
	return nil
}

func (filter Filter) toDB() db.Filter {
	return db.Filter{Column: filter.Column, Operator: filter.Operator, Value: filter.Value}
}
