package generation

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"hermannm.dev/devlog/log"
	"hermannm.dev/leadquery/apperr"
	"hermannm.dev/leadquery/db"
	"hermannm.dev/leadquery/query"
)

// Generator produces query descriptors for questions that no pre-built strategy answers.
type Generator struct {
	service Service
	schema  db.Schema
}

func NewGenerator(service Service) Generator {
	return Generator{service: service, schema: db.CRMSchema}
}

func (generator Generator) Available() bool {
	return generator.service.Available()
}

// Generate asks the service for a descriptor answering question. The descriptor is not
// validated here; query.Executor rejects anything outside the schema.
func (generator Generator) Generate(
	ctx context.Context,
	question string,
	now time.Time,
) (query.Descriptor, error) {
	if !generator.service.Available() {
		return query.Descriptor{}, apperr.ServiceUnavailable(
			"AI query service is not configured. Set GEMINI_API_KEY to enable free-text questions.",
		)
	}

	prompt := BuildQueryPrompt(question, generator.schema, now)

	response, err := generator.service.Complete(ctx, prompt)
	if err != nil {
		return query.Descriptor{}, apperr.UpstreamGeneration(err, "Failed to generate query")
	}

	object, err := ExtractJSONObject(response)
	if err != nil {
		return query.Descriptor{}, apperr.UpstreamGeneration(err, "Failed to parse generated query")
	}

	var descriptor query.Descriptor
	if err := json.Unmarshal([]byte(object), &descriptor); err != nil {
		return query.Descriptor{}, apperr.UpstreamGeneration(err, "Failed to parse generated query")
	}

	log.Debug(
		"generated query descriptor",
		slog.String("table", descriptor.Table),
		slog.String("select", string(descriptor.Select)),
		slog.Int("filters", len(descriptor.Filters)),
	)

	return descriptor, nil
}
