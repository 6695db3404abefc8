// internal/catalog/elasticsearch_test.go
package catalog

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"template-recommender/internal/common/logger"
	"template-recommender/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedTransport serves a canned response and records the request for
// inspection.
type fixedTransport struct {
	status  int
	body    string
	lastReq *http.Request
	reqBody string
}

func (t *fixedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.lastReq = req
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		t.reqBody = string(raw)
	}
	return &http.Response{
		StatusCode: t.status,
		Body:       io.NopCloser(strings.NewReader(t.body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}, "X-Elastic-Product": []string{"Elasticsearch"}},
	}, nil
}

func newTestCatalog(t *testing.T, transport *fixedTransport) *ElasticsearchCatalog {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://elasticsearch.test:9200"},
		Transport: transport,
	})
	require.NoError(t, err)

	cat, err := NewElasticsearchCatalog(client, "templates", logger.NewTestLogger(t))
	require.NoError(t, err)
	return cat
}

func TestNewElasticsearchCatalog_RequiresIndex(t *testing.T) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{})
	require.NoError(t, err)

	_, err = NewElasticsearchCatalog(client, "", logger.NewTestLogger(t))
	assert.ErrorIs(t, err, ErrMissingIndex)
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name    string
		filters models.CatalogFilters
		check   func(t *testing.T, query map[string]interface{})
	}{
		{
			name:    "no filters yields empty bool filter",
			filters: models.CatalogFilters{},
			check: func(t *testing.T, query map[string]interface{}) {
				assert.Empty(t, filterClausesOf(t, query))
				assert.NotContains(t, query, "sort")
			},
		},
		{
			name:    "public only adds a term clause",
			filters: models.CatalogFilters{PublicOnly: true},
			check: func(t *testing.T, query map[string]interface{}) {
				clauses := filterClausesOf(t, query)
				require.Len(t, clauses, 1)
				term := clauses[0].(map[string]interface{})["term"].(map[string]interface{})
				assert.Equal(t, true, term["isPublic"])
			},
		},
		{
			name: "categories and tags become terms clauses",
			filters: models.CatalogFilters{
				Categories: []models.TemplateCategory{models.CategorySales, models.CategoryMarketing},
				Tags:       []string{"outreach"},
			},
			check: func(t *testing.T, query map[string]interface{}) {
				clauses := filterClausesOf(t, query)
				require.Len(t, clauses, 2)
				categories := clauses[0].(map[string]interface{})["terms"].(map[string]interface{})
				assert.Equal(t, []string{"sales", "marketing"}, categories["category"])
				tags := clauses[1].(map[string]interface{})["terms"].(map[string]interface{})
				assert.Equal(t, []string{"outreach"}, tags["tags"])
			},
		},
		{
			name:    "min rating becomes a range clause",
			filters: models.CatalogFilters{MinRating: 4.0},
			check: func(t *testing.T, query map[string]interface{}) {
				clauses := filterClausesOf(t, query)
				require.Len(t, clauses, 1)
				rng := clauses[0].(map[string]interface{})["range"].(map[string]interface{})
				rating := rng["ratingAverage"].(map[string]interface{})
				assert.Equal(t, 4.0, rating["gte"])
			},
		},
		{
			name:    "popularity sort orders by usage count",
			filters: models.CatalogFilters{SortByPopularity: true},
			check: func(t *testing.T, query map[string]interface{}) {
				sorts, ok := query["sort"].([]interface{})
				require.True(t, ok)
				require.Len(t, sorts, 1)
				usage := sorts[0].(map[string]interface{})["usageCount"].(map[string]interface{})
				assert.Equal(t, "desc", usage["order"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, buildSearchQuery(tt.filters))
		})
	}
}

func filterClausesOf(t *testing.T, query map[string]interface{}) []interface{} {
	boolQuery, ok := query["query"].(map[string]interface{})["bool"].(map[string]interface{})
	require.True(t, ok)
	clauses, ok := boolQuery["filter"].([]interface{})
	require.True(t, ok)
	return clauses
}

func TestSearch_DecodesHits(t *testing.T) {
	transport := &fixedTransport{
		status: http.StatusOK,
		body: `{"hits":{"total":{"value":2},"hits":[
			{"_id":"tpl-1","_source":{"name":"Cold outreach","category":"sales","ratingAverage":4.5,"usageCount":12,"isPublic":true}},
			{"_id":"tpl-2","_source":{"id":"tpl-2","name":"Weekly report","category":"operations","isPublic":true}}
		]}}`,
	}
	cat := newTestCatalog(t, transport)

	templates, total, err := cat.Search(context.Background(), models.CatalogFilters{PublicOnly: true, Size: 5})
	require.NoError(t, err)

	assert.Equal(t, 2, total)
	require.Len(t, templates, 2)
	// The document id fills in when the source omits it.
	assert.Equal(t, "tpl-1", templates[0].ID)
	assert.Equal(t, "Cold outreach", templates[0].Name)
	assert.Equal(t, models.CategorySales, templates[0].Category)
	assert.Equal(t, "tpl-2", templates[1].ID)

	assert.Contains(t, transport.lastReq.URL.Path, "templates")
	assert.Contains(t, transport.reqBody, `"isPublic":true`)
}

func TestSearch_ServerErrorPropagates(t *testing.T) {
	transport := &fixedTransport{status: http.StatusInternalServerError, body: `{"error":"boom"}`}
	cat := newTestCatalog(t, transport)

	_, _, err := cat.Search(context.Background(), models.CatalogFilters{})
	assert.Error(t, err)
}

func TestGetByID_Found(t *testing.T) {
	transport := &fixedTransport{
		status: http.StatusOK,
		body:   `{"_id":"tpl-1","found":true,"_source":{"name":"Cold outreach","category":"sales"}}`,
	}
	cat := newTestCatalog(t, transport)

	record, err := cat.GetByID(context.Background(), "tpl-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "tpl-1", record.ID)
	assert.Equal(t, "Cold outreach", record.Name)
}

func TestGetByID_MissingIsNotAnError(t *testing.T) {
	transport := &fixedTransport{status: http.StatusNotFound, body: `{"found":false}`}
	cat := newTestCatalog(t, transport)

	record, err := cat.GetByID(context.Background(), "tpl-gone")
	require.NoError(t, err)
	assert.Nil(t, record)
}
