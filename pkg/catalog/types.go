// Package catalog implements the persisted publication catalog: per-type
// category trees with stable sibling ordering, publication metadata rows,
// and the read-only index used by the search engine.
package catalog

// Type identifies one of the four fixed publication domains. Categories
// never cross types except through Store.MoveAcrossType.
type Type string

const (
	Books      Type = "books"
	Magazines  Type = "magazines"
	Datasheets Type = "datasheets"
	Others     Type = "others"
)

// Types lists all publication types in display order.
var Types = []Type{Books, Magazines, Datasheets, Others}

// Valid reports whether t is one of the known publication types.
func (t Type) Valid() bool {
	switch t {
	case Books, Magazines, Datasheets, Others:
		return true
	}
	return false
}

// table returns the category table for this type. Callers must check
// Valid() first; the table name is interpolated into SQL.
func (t Type) table() string {
	return string(t) + "_categories"
}

// Category is a single node of a category tree. A category with a non-nil
// ParentID is a subcategory; the tree is at most two levels deep.
type Category struct {
	ID        int64
	Name      string
	ParentID  *int64
	Type      Type
	SortOrder int
}

// CategoryNode is a top-level category together with its ordered
// subcategories, as returned by LoadTree.
type CategoryNode struct {
	Category
	Subcategories []Category
}

// Publication is the metadata row for a single catalog entry. Asset files
// (description, cover, PDF) live under assets/<ID>/ and are resolved by
// convention, never stored here.
type Publication struct {
	ID           string
	Title        string
	Author       string
	Year         *int
	CategoryID   int64
	CategoryType Type
}

// Membership locates a publication inside a category tree. Subcategory is
// empty when the publication sits directly under a top-level category.
type Membership struct {
	Type        Type
	Category    string
	Subcategory string
}
