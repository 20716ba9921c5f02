package search

import (
	"sort"

	"github.com/bohm/libris/pkg/catalog"
)

// MembershipLookup resolves which category a publication belongs to. The
// catalog index satisfies this.
type MembershipLookup interface {
	Membership(id string) (*catalog.Membership, error)
}

// Aggregate applies the request's scope filter, year filter, result cap and
// sort to a raw match list. It is a pure function of its inputs: matches
// are filtered in arrival order, capped, then stably sorted, so relevance
// order (stage order, insertion order within a stage) survives untouched.
func Aggregate(matches []Match, req Request, members MembershipLookup) []Match {
	out := make([]Match, 0, len(matches))

	// memberships are looked up once per publication, not once per match.
	resolved := make(map[string]*catalog.Membership)

	for _, m := range matches {
		if req.Scope != nil {
			membership, ok := resolved[m.PublicationID]
			if !ok {
				var err error
				membership, err = members.Membership(m.PublicationID)
				if err != nil {
					membership = nil
				}
				resolved[m.PublicationID] = membership
			}
			if !scopeMatches(req.Scope, membership) {
				continue
			}
		}

		if req.Years != nil {
			if m.Year == nil || *m.Year < req.Years.From || *m.Year > req.Years.To {
				continue
			}
		}

		out = append(out, m)
		if len(out) == req.MaxResults {
			break
		}
	}

	sortMatches(out, req.SortBy)
	return out
}

func scopeMatches(scope *Scope, membership *catalog.Membership) bool {
	if membership == nil {
		return false
	}
	if scope.Type != "" && membership.Type != scope.Type {
		return false
	}
	if scope.Category != "" && membership.Category != scope.Category {
		return false
	}
	if scope.Subcategory != "" && membership.Subcategory != scope.Subcategory {
		return false
	}
	return true
}

// sortMatches orders matches by the requested key. All sorts are stable so
// equal keys keep their arrival order. Relevance is a no-op: matches
// already arrive in stage order.
func sortMatches(matches []Match, key SortKey) {
	switch key {
	case SortTitle:
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].Title < matches[j].Title
		})
	case SortAuthor:
		// Empty author sorts first, which plain string comparison gives us.
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].Author < matches[j].Author
		})
	case SortYear:
		sort.SliceStable(matches, func(i, j int) bool {
			return yearOrZero(matches[i].Year) < yearOrZero(matches[j].Year)
		})
	}
}

func yearOrZero(y *int) int {
	if y == nil {
		return 0
	}
	return *y
}
