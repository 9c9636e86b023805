package generation

import (
	"fmt"
	"strings"
	"time"

	"hermannm.dev/leadquery/db"
	"hermannm.dev/leadquery/timewindow"
)

const dateLayout = "2006-01-02"

// BuildQueryPrompt renders the instructions for turning question into a query descriptor.
func BuildQueryPrompt(question string, schema db.Schema, now time.Time) string {
	var builder strings.Builder

	weekStart := now
	if window, err := timewindow.Resolve(timewindow.Week, now); err == nil {
		weekStart = window.Start
	}

	fmt.Fprintf(&builder, `You translate questions about a CRM into read-only database queries.

TODAY: %s
START OF THIS WEEK (Sunday): %s

TABLES:
`, now.Format(dateLayout), weekStart.Format(dateLayout))

	for _, table := range schema {
		fmt.Fprintf(&builder, "- %s (%s)\n", table.Name, table.Description)
		for _, column := range table.Columns {
			fmt.Fprintf(&builder, "    %s %v", column.Name, column.DataType)
			if column.Optional {
				builder.WriteString(" (nullable)")
			}
			if column.Description != "" {
				fmt.Fprintf(&builder, ": %s", column.Description)
			}
			builder.WriteRune('\n')
		}
	}

	builder.WriteString(`
RULES:
- Only read data. Never modify anything.
- Use only the tables and columns listed above.
- "select" is one of: "*", a comma-separated list of columns, "count", or exactly one of
  "sum(column)", "avg(column)", "min(column)", "max(column)" on a numeric column.
- Filter operators: eq, neq, gt, gte, lt, lte, like, ilike, in. "in" takes a list of values.
- Dates are written as YYYY-MM-DD or RFC 3339 timestamps.
- To filter on a person by name, use the value "lookup:<role>:<name>" on the ID column,
  e.g. {"column": "booker_id", "operator": "eq", "value": "lookup:booker:Chicko"}.
- "order" and "limit" are optional, and ignored for count and aggregate queries.

Respond with a single JSON object and nothing else, in this shape:
{"table": "...", "select": "...", "filters": [{"column": "...", "operator": "...", "value": ...}],
 "order": {"column": "...", "ascending": true}, "limit": 10, "explanation": "..."}

QUESTION: `)
	builder.WriteString(question)
	builder.WriteRune('\n')

	return builder.String()
}
