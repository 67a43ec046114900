package database

import (
	"context"
	"fmt"
	"net/http"

	"insurance-quote-workers/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticsearchClient wraps the search cluster that can serve the plan
// catalog instead of Postgres.
type ElasticsearchClient struct {
	Client *elasticsearch.Client
	index  string
}

// NewElasticsearch builds a client for the cluster holding index. Nothing is
// dialled until Ping.
func NewElasticsearch(cfg config.ElasticsearchConfig, index string) (*ElasticsearchClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ElasticsearchClient{Client: es, index: index}, nil
}

// Ping succeeds only when the catalog index exists.
func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Indices.Exists([]string{c.index}, c.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("elasticsearch index %q not found", c.index)
	case res.IsError():
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}
