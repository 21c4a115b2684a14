package api

import (
	"time"

	"github.com/wlfogle/OmnioSearch/internal/search"
	"github.com/wlfogle/OmnioSearch/internal/store"
)

// StructuredSearchRequest is the request body for POST /search/query.
type StructuredSearchRequest struct {
	Text           string     `json:"text" validate:"required"`
	FileTypes      []string   `json:"file_types,omitempty"`
	SizeMin        *int64     `json:"size_min,omitempty"`
	SizeMax        *int64     `json:"size_max,omitempty"`
	ModifiedAfter  *time.Time `json:"modified_after,omitempty"`
	ModifiedBefore *time.Time `json:"modified_before,omitempty"`
	SearchContent  bool       `json:"search_content"`
	IncludeHidden  bool       `json:"include_hidden"`
	MaxResults     int        `json:"max_results,omitempty"`
	FuzzyThreshold float64    `json:"fuzzy_threshold,omitempty"`
}

// Query converts the request into a structured query, filling defaults.
func (r StructuredSearchRequest) Query() search.Query {
	q := search.FromText(r.Text)
	q.FileTypes = r.FileTypes
	q.SizeMin = r.SizeMin
	q.SizeMax = r.SizeMax
	q.ModifiedAfter = r.ModifiedAfter
	q.ModifiedBefore = r.ModifiedBefore
	q.SearchContent = r.SearchContent
	q.IncludeHidden = r.IncludeHidden
	if r.MaxResults > 0 {
		q.MaxResults = r.MaxResults
	}
	if r.FuzzyThreshold > 0 {
		q.FuzzyThreshold = r.FuzzyThreshold
	}
	return q
}

// SearchResponse wraps a ranked result list.
type SearchResponse struct {
	Results []search.Result `json:"results" validate:"required"`
	Total   int             `json:"total" validate:"required"`
}

// IndexRequest is the request body for POST /index.
type IndexRequest struct {
	Roots []string `json:"roots,omitempty"`
}

// StatusResponse is the index status payload (aliased from the store layer).
type StatusResponse = store.IndexStatus

// SuggestResponse wraps query completion suggestions.
type SuggestResponse struct {
	Suggestions []string `json:"suggestions" validate:"required"`
}

// CloudAuthResponse carries the OAuth grant URL for a provider.
type CloudAuthResponse struct {
	Provider string `json:"provider" validate:"required"`
	AuthURL  string `json:"auth_url" validate:"required"`
}

// CloudCallbackRequest is the request body for POST /cloud/{provider}/callback.
type CloudCallbackRequest struct {
	Code string `json:"code" validate:"required"`
}
