package search

import (
	"fmt"
	"testing"

	"github.com/bohm/libris/pkg/catalog"
)

type fakeMembers map[string]*catalog.Membership

func (f fakeMembers) Membership(id string) (*catalog.Membership, error) {
	if m, ok := f[id]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("unknown publication %s", id)
}

func intPtr(n int) *int { return &n }

func TestAggregateScopeFilter(t *testing.T) {
	members := fakeMembers{
		"a": {Type: catalog.Books, Category: "Programming", Subcategory: "Go"},
		"b": {Type: catalog.Books, Category: "Electronics"},
		"c": {Type: catalog.Magazines, Category: "Programming"},
	}
	matches := []Match{
		{PublicationID: "a", Title: "A"},
		{PublicationID: "b", Title: "B"},
		{PublicationID: "c", Title: "C"},
	}

	req := Request{Scope: &Scope{Type: catalog.Books, Category: "Programming"}, MaxResults: 100}
	out := Aggregate(matches, req, members)
	if len(out) != 1 || out[0].PublicationID != "a" {
		t.Errorf("Expected only publication a, got %+v", out)
	}

	req.Scope.Subcategory = "Go"
	out = Aggregate(matches, req, members)
	if len(out) != 1 || out[0].PublicationID != "a" {
		t.Errorf("Expected subcategory scope to keep a, got %+v", out)
	}

	req.Scope.Subcategory = "Python"
	if out = Aggregate(matches, req, members); len(out) != 0 {
		t.Errorf("Expected no matches for wrong subcategory, got %+v", out)
	}
}

func TestAggregateScopeDropsUnresolvable(t *testing.T) {
	matches := []Match{{PublicationID: "ghost", Title: "Ghost"}}
	req := Request{Scope: &Scope{Type: catalog.Books}, MaxResults: 100}

	out := Aggregate(matches, req, fakeMembers{})
	if len(out) != 0 {
		t.Errorf("Expected unresolvable publications to be dropped, got %+v", out)
	}
}

func TestAggregateYearFilter(t *testing.T) {
	matches := []Match{
		{PublicationID: "a", Year: intPtr(1995)},
		{PublicationID: "b", Year: intPtr(2005)},
		{PublicationID: "c"}, // no year
		{PublicationID: "d", Year: intPtr(2000)},
	}
	req := Request{Years: &YearRange{From: 1998, To: 2004}, MaxResults: 100}

	out := Aggregate(matches, req, fakeMembers{})
	if len(out) != 1 || out[0].PublicationID != "d" {
		t.Errorf("Expected only publication d in range, got %+v", out)
	}
}

func TestAggregateCapsBeforeSorting(t *testing.T) {
	matches := []Match{
		{PublicationID: "a", Title: "Zebra"},
		{PublicationID: "b", Title: "Alpha"},
		{PublicationID: "c", Title: "Middle"},
	}
	req := Request{SortBy: SortTitle, MaxResults: 10}
	req.MaxResults = 2

	out := Aggregate(matches, req, fakeMembers{})
	if len(out) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(out))
	}
	// The first two arrivals survive the cap, then sort by title.
	if out[0].Title != "Alpha" || out[1].Title != "Zebra" {
		t.Errorf("Expected [Alpha Zebra], got [%s %s]", out[0].Title, out[1].Title)
	}
}

func TestAggregateSortByYearMissingFirst(t *testing.T) {
	matches := []Match{
		{PublicationID: "a", Year: intPtr(2001)},
		{PublicationID: "b"},
		{PublicationID: "c", Year: intPtr(1998)},
	}
	req := Request{SortBy: SortYear, MaxResults: 100}

	out := Aggregate(matches, req, fakeMembers{})
	want := []string{"b", "c", "a"}
	for i := range want {
		if out[i].PublicationID != want[i] {
			t.Fatalf("Expected order %v, got %+v", want, out)
		}
	}
}

func TestAggregateSortByAuthorEmptyFirst(t *testing.T) {
	matches := []Match{
		{PublicationID: "a", Author: "Knuth"},
		{PublicationID: "b"},
		{PublicationID: "c", Author: "Aho"},
	}
	req := Request{SortBy: SortAuthor, MaxResults: 100}

	out := Aggregate(matches, req, fakeMembers{})
	want := []string{"b", "c", "a"}
	for i := range want {
		if out[i].PublicationID != want[i] {
			t.Fatalf("Expected order %v, got %+v", want, out)
		}
	}
}

func TestAggregateRelevanceKeepsArrivalOrder(t *testing.T) {
	matches := []Match{
		{PublicationID: "late", Stage: StagePDF},
		{PublicationID: "early", Stage: StageTitle},
	}
	req := Request{SortBy: SortRelevance, MaxResults: 100}

	out := Aggregate(matches, req, fakeMembers{})
	if out[0].PublicationID != "late" || out[1].PublicationID != "early" {
		t.Errorf("Expected arrival order preserved, got %+v", out)
	}
}

func TestRequestNormalize(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 100},
		{5, 10},
		{500, 500},
		{5000, 1000},
	}
	for _, tt := range tests {
		req := Request{MaxResults: tt.in}
		req.Normalize()
		if req.MaxResults != tt.want {
			t.Errorf("Normalize(%d) = %d, want %d", tt.in, req.MaxResults, tt.want)
		}
	}

	req := Request{}
	req.Normalize()
	if req.SortBy != SortRelevance {
		t.Errorf("Expected default sort relevance, got %q", req.SortBy)
	}
}

func TestRequestValidate(t *testing.T) {
	valid := Request{Query: "go", Titles: true, SortBy: SortRelevance, MaxResults: 100}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid request, got %v", err)
	}

	empty := valid
	empty.Query = ""
	if err := empty.Validate(); err == nil {
		t.Error("Expected error for empty query")
	}

	noStages := valid
	noStages.Titles = false
	if err := noStages.Validate(); err == nil {
		t.Error("Expected error when no stage is enabled")
	}

	badSort := valid
	badSort.SortBy = "popularity"
	if err := badSort.Validate(); err == nil {
		t.Error("Expected error for unknown sort key")
	}

	badScope := valid
	badScope.Scope = &Scope{Type: "movies"}
	if err := badScope.Validate(); err == nil {
		t.Error("Expected error for unknown scope type")
	}

	badYears := valid
	badYears.Years = &YearRange{From: 2020, To: 2010}
	if err := badYears.Validate(); err == nil {
		t.Error("Expected error for inverted year range")
	}
}
