package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"hermannm.dev/devlog/log"
	"hermannm.dev/leadquery/config"
	"hermannm.dev/leadquery/timewindow"
	"hermannm.dev/wrap"
)

type credentialKey struct{}

// WithCredential returns a context carrying the caller's bearer token, to be forwarded to
// delegated endpoints.
func WithCredential(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, credentialKey{}, token)
}

func CredentialFromContext(ctx context.Context) (token string, ok bool) {
	token, ok = ctx.Value(credentialKey{}).(string)
	return token, ok && token != ""
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(config config.Endpoints) Client {
	return Client{
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		client:  &http.Client{Timeout: config.Timeout},
	}
}

func (client Client) Configured() bool {
	return client.baseURL != ""
}

// Call issues a GET to endpoint for the given window, and decodes the JSON response. Any
// non-2xx status is an error.
func (client Client) Call(
	ctx context.Context,
	endpoint Endpoint,
	window timewindow.Window,
) (any, error) {
	if !client.Configured() {
		return nil, errors.New("delegated endpoints base URL not configured")
	}

	url := client.baseURL + endpoint.Path
	if query := endpoint.Query(window).Encode(); query != "" {
		url += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, wrap.Errorf(err, "failed to create request for endpoint '%s'", endpoint.Name)
	}
	req.Header.Set("Accept", "application/json")
	if token, ok := CredentialFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log.Debug("calling delegated endpoint", slog.String("endpoint", endpoint.Name), slog.String("url", url))

	res, err := client.client.Do(req)
	if err != nil {
		return nil, wrap.Errorf(err, "request to endpoint '%s' failed", endpoint.Name)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 500))
		return nil, fmt.Errorf(
			"endpoint '%s' returned status %d: %s",
			endpoint.Name,
			res.StatusCode,
			strings.TrimSpace(string(body)),
		)
	}

	var data any
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, wrap.Errorf(err, "failed to parse response from endpoint '%s'", endpoint.Name)
	}

	return data, nil
}
