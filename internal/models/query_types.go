// internal/models/query_types.go
package models

// CatalogFilters narrows a catalog search. Zero values mean "no constraint".
type CatalogFilters struct {
	Categories []TemplateCategory `json:"categories,omitempty"`
	Tags       []string           `json:"tags,omitempty"`
	PublicOnly bool               `json:"publicOnly"`
	MinRating  float64            `json:"minRating"`
	From       int                `json:"from"`
	Size       int                `json:"size"`
	// SortByPopularity orders results by usage count descending instead of
	// the catalog's relevance order.
	SortByPopularity bool `json:"sortByPopularity"`
}
