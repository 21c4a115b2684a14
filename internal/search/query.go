// Package search evaluates structured queries against four result sources
// (indexed lookup, live filesystem scan, live content grep, cloud) and
// fuses their outputs into one deduplicated, relevance-ranked list.
package search

import (
	"strings"
	"time"
)

const (
	defaultMaxResults     = 1000
	defaultFuzzyThreshold = 0.6
	naturalFuzzyThreshold = 0.4
)

// Query is the structured request consumed by every result source. Build
// one per search and treat it as immutable.
type Query struct {
	Text           string     `json:"text"`
	FileTypes      []string   `json:"file_types,omitempty"`
	SizeMin        *int64     `json:"size_min,omitempty"`
	SizeMax        *int64     `json:"size_max,omitempty"`
	ModifiedAfter  *time.Time `json:"modified_after,omitempty"`
	ModifiedBefore *time.Time `json:"modified_before,omitempty"`
	SearchContent  bool       `json:"search_content"`
	IncludeHidden  bool       `json:"include_hidden"`
	MaxResults     int        `json:"max_results"`
	FuzzyThreshold float64    `json:"fuzzy_threshold"`
}

// FromText builds a plain text query with default limits.
func FromText(text string) Query {
	return Query{
		Text:           text,
		MaxResults:     defaultMaxResults,
		FuzzyThreshold: defaultFuzzyThreshold,
	}
}

// FromNaturalLanguage builds the base query an interpreter refines. The
// fuzzy threshold is looser because interpreted text tends to be a fragment
// of what the user typed.
func FromNaturalLanguage(text string) Query {
	return Query{
		Text:           text,
		SearchContent:  true,
		MaxResults:     defaultMaxResults,
		FuzzyThreshold: naturalFuzzyThreshold,
	}
}

// ContentMatch is one line-level hit inside a file's content.
type ContentMatch struct {
	LineNumber  int    `json:"line_number"`
	LineContent string `json:"line_content"`
	MatchStart  int    `json:"match_start"`
	MatchEnd    int    `json:"match_end"`
}

// Result is one ranked hit. Results are built fresh per query and never
// persisted.
type Result struct {
	Path           string         `json:"path"`
	Name           string         `json:"name"`
	Size           int64          `json:"size"`
	Modified       time.Time      `json:"modified"`
	FileType       string         `json:"file_type"`
	MimeType       string         `json:"mime_type"`
	RelevanceScore float64        `json:"relevance_score"`
	ContentMatches []ContentMatch `json:"content_matches,omitempty"`
	IsDirectory    bool           `json:"is_directory"`
	Permissions    string         `json:"permissions,omitempty"`
	IconHint       string         `json:"icon_hint,omitempty"`
}

// matchesFilters reports whether a candidate satisfies every bound the
// query specifies. Bounds combine with AND semantics; an unset bound always
// passes.
func (q Query) matchesFilters(size int64, modified time.Time, fileType string) bool {
	if q.SizeMin != nil && size < *q.SizeMin {
		return false
	}
	if q.SizeMax != nil && size > *q.SizeMax {
		return false
	}
	if q.ModifiedAfter != nil && modified.Before(*q.ModifiedAfter) {
		return false
	}
	if q.ModifiedBefore != nil && modified.After(*q.ModifiedBefore) {
		return false
	}
	if len(q.FileTypes) > 0 {
		want := strings.TrimPrefix(strings.ToLower(fileType), ".")
		found := false
		for _, ft := range q.FileTypes {
			if strings.TrimPrefix(strings.ToLower(ft), ".") == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
