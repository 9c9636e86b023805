// Package endpoints calls the CRM's existing report endpoints on behalf of a question, with the
// caller's credential.
package endpoints

import (
	"net/url"

	"hermannm.dev/enumnames"
	"hermannm.dev/leadquery/timewindow"
)

type Params uint8

const (
	ParamsNone Params = iota + 1
	ParamsDate
	ParamsRange
)

var paramsNames = enumnames.NewMap(map[Params]string{
	ParamsNone:  "none",
	ParamsDate:  "date",
	ParamsRange: "range",
})

func (params Params) String() string {
	return paramsNames.GetNameOrFallback(params, "INVALID_PARAMS")
}

func (params Params) MarshalJSON() ([]byte, error) {
	return paramsNames.MarshalToNameJSON(params)
}

type Endpoint struct {
	Name string `json:"name"`
	Path string `json:"path"`
	// Phrases that identify a question as being about this endpoint, lowercase.
	Phrases []string `json:"-"`
	Params  Params   `json:"params"`
	// Shown as the explanation of answers from this endpoint.
	Description string `json:"description"`
}

// Registry lists the delegated endpoints in the order they are matched against questions.
var Registry = []Endpoint{
	{
		Name:        "comprehensive_report",
		Path:        "/api/reports/comprehensive",
		Phrases:     []string{"comprehensive report", "full report"},
		Params:      ParamsRange,
		Description: "Comprehensive report of leads, bookings and sales",
	},
	{
		Name:        "daily_breakdown",
		Path:        "/api/reports/daily-breakdown",
		Phrases:     []string{"daily breakdown"},
		Params:      ParamsDate,
		Description: "Breakdown of activity for a single day",
	},
	{
		Name:        "hourly_activity",
		Path:        "/api/reports/hourly-activity",
		Phrases:     []string{"hourly"},
		Params:      ParamsDate,
		Description: "Hour-by-hour activity for a single day",
	},
	{
		Name:        "team_performance",
		Path:        "/api/reports/team-performance",
		Phrases:     []string{"team performance"},
		Params:      ParamsRange,
		Description: "Performance of each team member",
	},
	{
		Name:        "calendar",
		Path:        "/api/leads/calendar",
		Phrases:     []string{"calendar"},
		Params:      ParamsRange,
		Description: "Calendar of booked appointments",
	},
	{
		Name:        "dashboard",
		Path:        "/api/dashboard/stats",
		Phrases:     []string{"dashboard"},
		Params:      ParamsNone,
		Description: "Dashboard statistics",
	},
}

const dateLayout = "2006-01-02"

// Query returns the query parameters for calling the endpoint about the given window. Date
// endpoints take the window's end date.
func (endpoint Endpoint) Query(window timewindow.Window) url.Values {
	values := url.Values{}

	switch endpoint.Params {
	case ParamsDate:
		values.Set("date", window.End.Format(dateLayout))
	case ParamsRange:
		values.Set("startDate", window.Start.Format(dateLayout))
		values.Set("endDate", window.End.Format(dateLayout))
	}

	return values
}

// DefaultTimeframe is used when a question about the endpoint names no timeframe.
func (endpoint Endpoint) DefaultTimeframe() timewindow.Timeframe {
	if endpoint.Params == ParamsDate {
		return timewindow.Today
	}
	return timewindow.Week
}
