// Package elasticsearch implements db.Store on Elasticsearch, with one index per table.
package elasticsearch

import (
	"context"
	"encoding/json"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"hermannm.dev/leadquery/config"
	"hermannm.dev/wrap"
)

type ElasticsearchDB struct {
	client *elasticsearch.Client
}

func NewElasticsearchDB(ctx context.Context, config config.Elasticsearch) (ElasticsearchDB, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:         []string{config.Address},
		Username:          config.Username,
		Password:          config.Password,
		EnableDebugLogger: config.Debug,
	})
	if err != nil {
		return ElasticsearchDB{}, wrap.Error(err, "failed to connect to Elasticsearch")
	}

	res, err := client.Ping(client.Ping.WithContext(ctx))
	if err != nil {
		return ElasticsearchDB{}, wrap.Error(err, "failed to ping Elasticsearch")
	}
	defer res.Body.Close()
	if res.IsError() {
		return ElasticsearchDB{}, wrap.Error(decodeErrorResponse(res), "Elasticsearch ping failed")
	}

	return ElasticsearchDB{client: client}, nil
}

func (elastic ElasticsearchDB) Close() error {
	return nil
}

// decodeErrorResponse parses an error response body into an ElasticsearchError, falling back to
// the raw body if it is not in the standard error format.
func decodeErrorResponse(res *esapi.Response) error {
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return wrap.Errorf(err, "failed to read error response (status %d)", res.StatusCode)
	}

	elasticErr := new(types.ElasticsearchError)
	if err := json.Unmarshal(body, elasticErr); err != nil || elasticErr.ErrorCause.Type == "" {
		return &rawResponseError{status: res.StatusCode, body: string(body)}
	}
	if elasticErr.Status == 0 {
		elasticErr.Status = res.StatusCode
	}

	return formatElasticError(elasticErr)
}
