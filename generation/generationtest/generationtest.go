// Package generationtest provides a scripted generation.Service for tests.
package generationtest

import (
	"context"
	"errors"
	"sync"
)

// Service answers prompts with Respond, and records every prompt it receives. The zero value is
// an unconfigured service.
type Service struct {
	Respond func(prompt string) (string, error)

	lock    sync.Mutex
	prompts []string
}

// Replying returns a service that answers every prompt with response.
func Replying(response string) *Service {
	return &Service{Respond: func(string) (string, error) { return response, nil }}
}

// Failing returns a configured service whose every call fails with err.
func Failing(err error) *Service {
	return &Service{Respond: func(string) (string, error) { return "", err }}
}

func (service *Service) Available() bool {
	return service.Respond != nil
}

func (service *Service) Complete(ctx context.Context, prompt string) (string, error) {
	service.lock.Lock()
	service.prompts = append(service.prompts, prompt)
	service.lock.Unlock()

	if service.Respond == nil {
		return "", errors.New("generation service not configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return service.Respond(prompt)
}

func (service *Service) Prompts() []string {
	service.lock.Lock()
	defer service.lock.Unlock()
	return append([]string(nil), service.prompts...)
}
