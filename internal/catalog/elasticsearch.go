// internal/catalog/elasticsearch.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"template-recommender/internal/common/logger"
	"template-recommender/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ErrMissingIndex = errors.New("index name is required")

// ElasticsearchCatalog implements the catalog accessor over a templates
// index. Template documents are indexed with the same field names the JSON
// tags on models.TemplateRecord declare.
type ElasticsearchCatalog struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

// NewElasticsearchCatalog creates a catalog accessor for the given index.
func NewElasticsearchCatalog(client *elasticsearch.Client, index string, log logger.Logger) (*ElasticsearchCatalog, error) {
	if index == "" {
		return nil, ErrMissingIndex
	}
	return &ElasticsearchCatalog{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "es-catalog"}),
	}, nil
}

// Search runs a filtered query against the templates index.
func (c *ElasticsearchCatalog) Search(ctx context.Context, filters models.CatalogFilters) ([]models.TemplateRecord, int, error) {
	body, err := json.Marshal(buildSearchQuery(filters))
	if err != nil {
		return nil, 0, fmt.Errorf("marshal search query: %w", err)
	}

	size := filters.Size
	if size <= 0 {
		size = 10
	}
	from := filters.From

	req := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  strings.NewReader(string(body)),
		From:  &from,
		Size:  &size,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("catalog search error: %s", res.Status())
	}

	var envelope searchResponse
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}

	templates := make([]models.TemplateRecord, 0, len(envelope.Hits.Hits))
	for _, hit := range envelope.Hits.Hits {
		record := hit.Source
		if record.ID == "" {
			record.ID = hit.ID
		}
		templates = append(templates, record)
	}

	return templates, envelope.Hits.Total.Value, nil
}

// GetByID fetches a single template document. A missing document is not an
// error; it returns (nil, nil).
func (c *ElasticsearchCatalog) GetByID(ctx context.Context, id string) (*models.TemplateRecord, error) {
	req := esapi.GetRequest{
		Index:      c.index,
		DocumentID: id,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("catalog get: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("catalog get error: %s", res.Status())
	}

	var envelope getResponse
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode get response: %w", err)
	}
	if !envelope.Found {
		return nil, nil
	}

	record := envelope.Source
	if record.ID == "" {
		record.ID = envelope.ID
	}
	return &record, nil
}

// buildSearchQuery translates catalog filters into a bool query body.
func buildSearchQuery(filters models.CatalogFilters) map[string]interface{} {
	filterClauses := []interface{}{}

	if filters.PublicOnly {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"isPublic": true},
		})
	}

	if len(filters.Categories) > 0 {
		categories := make([]string, 0, len(filters.Categories))
		for _, category := range filters.Categories {
			categories = append(categories, string(category))
		}
		filterClauses = append(filterClauses, map[string]interface{}{
			"terms": map[string]interface{}{"category": categories},
		})
	}

	if len(filters.Tags) > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"terms": map[string]interface{}{"tags": filters.Tags},
		})
	}

	if filters.MinRating > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{
				"ratingAverage": map[string]interface{}{"gte": filters.MinRating},
			},
		})
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filterClauses,
			},
		},
	}

	if filters.SortByPopularity {
		query["sort"] = []interface{}{
			map[string]interface{}{"usageCount": map[string]interface{}{"order": "desc"}},
		}
	}

	return query
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string                `json:"_id"`
			Source models.TemplateRecord `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type getResponse struct {
	ID     string                `json:"_id"`
	Found  bool                  `json:"found"`
	Source models.TemplateRecord `json:"_source"`
}
