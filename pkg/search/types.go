// Package search implements the staged publication search engine: three
// independent strategies over titles, description files and PDF content,
// orchestrated by an executor that reports progress and supports
// cooperative cancellation, with results filtered and sorted by a pure
// aggregation step.
package search

import (
	"fmt"

	"github.com/bohm/libris/pkg/catalog"
)

// StageKind discriminates which strategy produced a match.
type StageKind string

const (
	StageTitle       StageKind = "title"
	StageDescription StageKind = "description"
	StagePDF         StageKind = "pdf"
)

// SortKey selects the final result ordering.
type SortKey string

const (
	SortRelevance SortKey = "relevance"
	SortTitle     SortKey = "title"
	SortAuthor    SortKey = "author"
	SortYear      SortKey = "year"
)

// ParseSortKey validates a sort key string from config or a request.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case SortRelevance, SortTitle, SortAuthor, SortYear:
		return SortKey(s), nil
	case "":
		return SortRelevance, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Scope restricts a search to one category (and optionally one
// subcategory) of a publication type.
type Scope struct {
	Type        catalog.Type `json:"type"`
	Category    string       `json:"category"`
	Subcategory string       `json:"subcategory,omitempty"`
}

// YearRange filters matches to publications whose year lies in [From, To]
// inclusive. Publications without a year are dropped while the filter is
// active.
type YearRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Request describes one search invocation.
type Request struct {
	Query        string     `json:"query"`
	Titles       bool       `json:"titles"`
	Descriptions bool       `json:"descriptions"`
	PDF          bool       `json:"pdf"`
	Scope        *Scope     `json:"scope,omitempty"`
	Years        *YearRange `json:"years,omitempty"`
	SortBy       SortKey    `json:"sort_by"`
	MaxResults   int        `json:"max_results"`
}

const (
	defaultMaxResults = 100
	minMaxResults     = 10
	maxMaxResults     = 1000
)

// Normalize fills defaults and clamps MaxResults into its allowed range.
func (r *Request) Normalize() {
	if r.SortBy == "" {
		r.SortBy = SortRelevance
	}
	switch {
	case r.MaxResults == 0:
		r.MaxResults = defaultMaxResults
	case r.MaxResults < minMaxResults:
		r.MaxResults = minMaxResults
	case r.MaxResults > maxMaxResults:
		r.MaxResults = maxMaxResults
	}
}

// Validate reports whether the request can run at all.
func (r *Request) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("search query must not be empty")
	}
	if !r.Titles && !r.Descriptions && !r.PDF {
		return fmt.Errorf("at least one search stage must be enabled")
	}
	if _, err := ParseSortKey(string(r.SortBy)); err != nil {
		return err
	}
	if r.Scope != nil && !r.Scope.Type.Valid() {
		return fmt.Errorf("unknown publication type %q in scope", r.Scope.Type)
	}
	if r.Years != nil && r.Years.From > r.Years.To {
		return fmt.Errorf("year range %d..%d is inverted", r.Years.From, r.Years.To)
	}
	return nil
}

// Match is a single search hit. PageNumber is set (1-based) only for PDF
// matches; Snippet carries a highlighted context window when the stage
// could produce one.
type Match struct {
	PublicationID string    `json:"publication_id"`
	Title         string    `json:"title"`
	Author        string    `json:"author,omitempty"`
	Year          *int      `json:"year,omitempty"`
	Stage         StageKind `json:"stage"`
	PageNumber    int       `json:"page_number,omitempty"`
	Snippet       string    `json:"snippet,omitempty"`
}

// AssetReadError records a publication whose description or PDF could not
// be read. The publication is skipped; the search as a whole continues.
type AssetReadError struct {
	PublicationID string
	Path          string
	Err           error
}

func (e *AssetReadError) Error() string {
	return fmt.Sprintf("reading asset %s of publication %s: %v", e.Path, e.PublicationID, e.Err)
}

func (e *AssetReadError) Unwrap() error {
	return e.Err
}
