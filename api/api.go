// Package api serves the question endpoints over HTTP.
package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"hermannm.dev/devlog/log"
	"hermannm.dev/leadquery/config"
	"hermannm.dev/leadquery/dispatch"
	"hermannm.dev/leadquery/generation"
)

type QueryAPI struct {
	dispatcher dispatch.Dispatcher
	generation generation.Service
	router     chi.Router
	config     config.Config
}

func NewQueryAPI(
	dispatcher dispatch.Dispatcher,
	generationService generation.Service,
	config config.Config,
) QueryAPI {
	api := QueryAPI{
		dispatcher: dispatcher,
		generation: generationService,
		router:     chi.NewRouter(),
		config:     config,
	}

	api.router.Use(requestID)
	api.router.Use(logRequest)
	api.router.Use(middleware.Recoverer)
	api.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: config.API.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))
	api.router.Use(middleware.Timeout(config.API.RequestTimeout))
	api.router.Use(forwardCredential)

	limit := rateLimiter(config.API.RateLimitPerSecond, config.API.RateLimitBurst)
	api.router.With(limit).Post("/query", api.Query)
	api.router.Get("/examples", api.Examples)
	api.router.Get("/status", api.Status)

	return api
}

func (api QueryAPI) Handler() http.Handler {
	return api.router
}

func (api QueryAPI) ListenAndServe() error {
	log.Infof("listening on port %s", api.config.API.Port)
	return http.ListenAndServe(fmt.Sprintf(":%s", api.config.API.Port), api.router)
}
