// Package apperr defines the error kinds that decide how a failed question is reported to the
// caller.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError indicates invalid input from the caller.
type ValidationError struct {
	Message string
	Cause   error
}

// ServiceUnavailableError indicates that the text-generation service is not configured.
type ServiceUnavailableError struct {
	Message string
}

// UpstreamGenerationError indicates that the text-generation service failed, or returned output
// that could not be parsed as a query descriptor.
type UpstreamGenerationError struct {
	Message string
	Cause   error
}

// InvalidQueryError indicates a generated query descriptor that references tables, columns or
// values outside the schema.
type InvalidQueryError struct {
	Message string
	Cause   error
}

// QueryExecutionError indicates that the store rejected or failed a query.
type QueryExecutionError struct {
	Message string
	Cause   error
}

// UnknownStrategyError indicates a classified strategy with no handler.
type UnknownStrategyError struct {
	Strategy string
}

func (err *ValidationError) Error() string { return withCause(err.Message, err.Cause) }
func (err *ValidationError) Unwrap() error { return err.Cause }

func (err *ServiceUnavailableError) Error() string { return err.Message }

func (err *UpstreamGenerationError) Error() string { return withCause(err.Message, err.Cause) }
func (err *UpstreamGenerationError) Unwrap() error { return err.Cause }

func (err *InvalidQueryError) Error() string { return withCause(err.Message, err.Cause) }
func (err *InvalidQueryError) Unwrap() error { return err.Cause }

func (err *QueryExecutionError) Error() string { return withCause(err.Message, err.Cause) }
func (err *QueryExecutionError) Unwrap() error { return err.Cause }

func (err *UnknownStrategyError) Error() string {
	return fmt.Sprintf("no handler for query strategy '%s'", err.Strategy)
}

func Validation(cause error, format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...), Cause: cause}
}

func ServiceUnavailable(format string, args ...any) *ServiceUnavailableError {
	return &ServiceUnavailableError{Message: fmt.Sprintf(format, args...)}
}

func UpstreamGeneration(cause error, format string, args ...any) *UpstreamGenerationError {
	return &UpstreamGenerationError{Message: fmt.Sprintf(format, args...), Cause: cause}
}

func InvalidQuery(cause error, format string, args ...any) *InvalidQueryError {
	return &InvalidQueryError{Message: fmt.Sprintf(format, args...), Cause: cause}
}

func QueryExecution(cause error, format string, args ...any) *QueryExecutionError {
	return &QueryExecutionError{Message: fmt.Sprintf(format, args...), Cause: cause}
}

// HTTPStatus maps an error to the status code it should be reported with.
func HTTPStatus(err error) int {
	var validation *ValidationError
	var unavailable *ServiceUnavailableError

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing message of the outermost error kind in err's chain, or
// fallback if err is not one of the kinds in this package.
func Message(err error, fallback string) string {
	var validation *ValidationError
	var unavailable *ServiceUnavailableError
	var generation *UpstreamGenerationError
	var invalidQuery *InvalidQueryError
	var execution *QueryExecutionError
	var unknown *UnknownStrategyError

	switch {
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &unavailable):
		return unavailable.Message
	case errors.As(err, &generation):
		return generation.Message
	case errors.As(err, &invalidQuery):
		return invalidQuery.Message
	case errors.As(err, &execution):
		return execution.Message
	case errors.As(err, &unknown):
		return unknown.Error()
	default:
		return fallback
	}
}

func withCause(message string, cause error) string {
	if cause == nil {
		return message
	}
	return message + ": " + cause.Error()
}
