package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"hermannm.dev/leadquery/apperr"
)

type queryRequest struct {
	Question json.RawMessage `json:"question"`
}

func (api QueryAPI) Query(res http.ResponseWriter, req *http.Request) {
	var body queryRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		api.sendError(res, apperr.Validation(err, "Invalid request body"))
		return
	}

	var question string
	if err := json.Unmarshal(body.Question, &question); err != nil || strings.TrimSpace(question) == "" {
		api.sendError(res, apperr.Validation(nil, "Question is required"))
		return
	}

	response, err := api.dispatcher.Answer(req.Context(), question)
	if err != nil {
		api.sendError(res, err)
		return
	}

	sendJSON(res, http.StatusOK, response)
}

var exampleQuestions = []string{
	"Who made the most bookings this week?",
	"Who has the highest revenue this month?",
	"What's our booking rate this week?",
	"What's the show up rate this month?",
	"What's our sales conversion rate?",
	"Show me the daily breakdown for today",
	"How is team performance this week?",
	"How many leads were booked today?",
	"What's the average sale value this week?",
	"List the 10 most recent sales",
}

type examplesResponse struct {
	Examples []string `json:"examples"`
}

func (api QueryAPI) Examples(res http.ResponseWriter, req *http.Request) {
	sendJSON(res, http.StatusOK, examplesResponse{Examples: exampleQuestions})
}

type statusResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

func (api QueryAPI) Status(res http.ResponseWriter, req *http.Request) {
	status := statusResponse{Available: api.generation.Available()}
	if status.Available {
		status.Message = "AI query service is available"
	} else {
		status.Message = "AI query service is not configured. Leaderboard, KPI and report questions " +
			"still work; set GEMINI_API_KEY to enable other questions."
	}

	sendJSON(res, http.StatusOK, status)
}
