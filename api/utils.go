package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"hermannm.dev/devlog/log"
	"hermannm.dev/leadquery/apperr"
)

type errorResponse struct {
	Error         string `json:"error"`
	SetupRequired bool   `json:"setupRequired,omitempty"`
	// The full error chain, only included outside of production.
	Details string `json:"details,omitempty"`
}

func (api QueryAPI) sendError(res http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)

	response := errorResponse{Error: apperr.Message(err, "Failed to process question")}

	var unavailable *apperr.ServiceUnavailableError
	if errors.As(err, &unavailable) {
		response.SetupRequired = true
	}

	if status >= http.StatusInternalServerError {
		log.ErrorCause(err, "failed to answer question")
		if !api.config.IsProduction {
			response.Details = err.Error()
		}
	}

	sendJSON(res, status, response)
}

func sendJSON(res http.ResponseWriter, status int, value any) {
	body, err := json.Marshal(value)
	if err != nil {
		log.ErrorCause(err, "failed to serialize response")
		http.Error(res, `{"error":"Failed to serialize response"}`, http.StatusInternalServerError)
		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	res.Write(body)
}
