package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"insurance-quote-workers/internal/common/logger"
	"insurance-quote-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/xeipuuv/gojsonschema"
)

// planDocumentSchema guards against half-indexed or hand-edited documents.
const planDocumentSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["company", "tier", "repairType", "premiumPerYear", "coverageAmount"],
	"properties": {
		"company":          {"type": "string", "minLength": 1},
		"tier":             {"type": "string", "minLength": 1},
		"repairType":       {"type": "string", "enum": ["garage", "center"]},
		"premiumPerYear":   {"type": "number", "exclusiveMinimum": 0},
		"coverageAmount":   {"type": "number", "exclusiveMinimum": 0},
		"featureTags":      {"type": "array", "items": {"type": "string"}},
		"hasFloodCoverage": {"type": "boolean"},
		"hasFireCoverage":  {"type": "boolean"}
	}
}`

const maxCatalogSize = 1000

// ElasticsearchSource reads plans from a search index. Documents that fail
// the plan schema are skipped and logged.
type ElasticsearchSource struct {
	client *elasticsearch.Client
	index  string
	schema *gojsonschema.Schema
	logger logger.Logger
}

func NewElasticsearchSource(client *elasticsearch.Client, index string, log logger.Logger) (*ElasticsearchSource, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(planDocumentSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile plan schema: %w", err)
	}
	return &ElasticsearchSource{client: client, index: index, schema: schema, logger: log}, nil
}

func (s *ElasticsearchSource) Name() string { return "elasticsearch" }

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchSource) Plans(ctx context.Context) ([]models.InsurancePlan, error) {
	query := `{"query":{"term":{"active":true}},"sort":[{"displayOrder":"asc"},{"_id":"asc"}]}`

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(strings.NewReader(query)),
		s.client.Search.WithSize(maxCatalogSize),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search returned %s", ErrCatalogUnavailable, res.Status())
	}

	var body searchResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", ErrCatalogUnavailable, err)
	}

	plans := make([]models.InsurancePlan, 0, len(body.Hits.Hits))
	for _, hit := range body.Hits.Hits {
		result, err := s.schema.Validate(gojsonschema.NewBytesLoader(hit.Source))
		if err != nil || !result.Valid() {
			s.logger.Warn("skipping invalid plan document", map[string]interface{}{
				"planId": hit.ID,
				"errors": describe(result, err),
			})
			continue
		}

		var p models.InsurancePlan
		if err := json.Unmarshal(hit.Source, &p); err != nil {
			s.logger.Warn("skipping undecodable plan document", map[string]interface{}{
				"planId": hit.ID,
				"error":  err.Error(),
			})
			continue
		}
		if p.ID == "" {
			p.ID = hit.ID
		}
		plans = append(plans, p)
	}

	s.logger.Debug("catalog loaded", map[string]interface{}{
		"source":  s.Name(),
		"index":   s.index,
		"plans":   len(plans),
		"skipped": len(body.Hits.Hits) - len(plans),
	})
	return plans, nil
}

func describe(result *gojsonschema.Result, err error) []string {
	if err != nil {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		out = append(out, desc.String())
	}
	return out
}
