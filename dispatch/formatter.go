package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"unicode/utf8"

	"hermannm.dev/devlog/log"
	"hermannm.dev/leadquery/generation"
)

// Formatter turns query results into a natural-language answer.
type Formatter struct {
	service      generation.Service
	maxDataChars int
}

func NewFormatter(service generation.Service, maxDataChars int) Formatter {
	return Formatter{service: service, maxDataChars: maxDataChars}
}

// resultCounter is implemented by result data that is not itself a list of results.
type resultCounter interface {
	ResultCount() int
}

// Format asks the generation service to answer question from data in a few sentences. If the
// service is unavailable or fails, it falls back to a sentence stating the number of results.
func (formatter Formatter) Format(
	ctx context.Context,
	question string,
	data any,
	explanation string,
) string {
	fallback := fmt.Sprintf("I found %d result(s) for your question.", countResults(data))

	if !formatter.service.Available() {
		return fallback
	}

	prompt, err := formatter.buildPrompt(question, data, explanation)
	if err != nil {
		log.ErrorCause(err, "failed to build answer prompt")
		return fallback
	}

	answer, err := formatter.service.Complete(ctx, prompt)
	if err != nil {
		log.Warn("answer generation failed, using fallback", slog.String("error", err.Error()))
		return fallback
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return fallback
	}
	return answer
}

func (formatter Formatter) buildPrompt(question string, data any, explanation string) (string, error) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	dataText := string(dataJSON)
	if formatter.maxDataChars > 0 && len(dataText) > formatter.maxDataChars {
		dataText = cutAtRuneBoundary(dataText, formatter.maxDataChars) + " ... (truncated)"
	}

	var builder strings.Builder
	builder.WriteString("You are an analytics assistant for a CRM. Answer the user's question using only ")
	builder.WriteString("the data below, in at most 4 sentences of plain text. Percentages and money ")
	builder.WriteString("amounts should be written as a person would say them.\n\n")
	fmt.Fprintf(&builder, "QUESTION: %s\n", question)
	if explanation != "" {
		fmt.Fprintf(&builder, "WHAT THE DATA IS: %s\n", explanation)
	}
	fmt.Fprintf(&builder, "DATA (JSON): %s\n", dataText)

	return builder.String(), nil
}

// cutAtRuneBoundary returns at most maxBytes of text without splitting a multi-byte character.
func cutAtRuneBoundary(text string, maxBytes int) string {
	if len(text) <= maxBytes {
		return text
	}
	end := maxBytes
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	return text[:end]
}

func countResults(data any) int {
	if counter, ok := data.(resultCounter); ok {
		return counter.ResultCount()
	}
	if data == nil {
		return 0
	}

	value := reflect.ValueOf(data)
	switch value.Kind() {
	case reflect.Slice, reflect.Array:
		return value.Len()
	case reflect.Pointer, reflect.Map, reflect.Interface:
		if value.IsNil() {
			return 0
		}
	}
	return 1
}
