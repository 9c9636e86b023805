// Package generation talks to the text-generation service, and turns free-text questions into
// query descriptors with it.
package generation

import "context"

// Service is a text-generation backend.
type Service interface {
	// Available is false when the service is not configured, in which case Complete always fails.
	Available() bool
	Complete(ctx context.Context, prompt string) (string, error)
}
