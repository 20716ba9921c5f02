package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/bohm/libris/pkg/log"
)

// descriptionCacheSize bounds the description text cache. Descriptions are
// small; a few hundred entries cover any realistic catalog page.
const descriptionCacheSize = 256

// Index is the read-only publication accessor the search engine runs
// against. It never mutates catalog state and needs no locking beyond what
// SQLite gives concurrent readers.
//
// Description texts are cached in a bounded LRU keyed by publication id,
// replacing the unbounded ad-hoc query caches of earlier designs.
type Index struct {
	db        *sql.DB
	assetsDir string
	descCache *lru.Cache[string, string]
	logger    *log.Logger
}

// NewIndex creates an index over an open database handle and the assets
// directory holding per-publication files.
func NewIndex(conn *sql.DB, assetsDir string) (*Index, error) {
	cache, err := lru.New[string, string](descriptionCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating description cache: %w", err)
	}
	return &Index{
		db:        conn,
		assetsDir: assetsDir,
		descCache: cache,
		logger:    log.ForComponent("index"),
	}, nil
}

// AssetsDir returns the root of the per-publication asset directories.
func (ix *Index) AssetsDir() string {
	return ix.assetsDir
}

// AllIDs returns every publication id, ordered by title for stable
// iteration.
func (ix *Index) AllIDs() ([]string, error) {
	rows, err := ix.db.Query("SELECT id FROM publications ORDER BY title, id")
	if err != nil {
		return nil, fmt.Errorf("querying publication ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Get returns the metadata of a single publication.
func (ix *Index) Get(id string) (*Publication, error) {
	row := ix.db.QueryRow(
		"SELECT id, title, author, year, category_id, category_type FROM publications WHERE id = ?", id,
	)
	pub, err := scanPublication(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "publication", ID: id}
	}
	return pub, err
}

// DescriptionPath returns the conventional description file path for a
// publication. The file may be absent.
func (ix *Index) DescriptionPath(id string) string {
	return DescriptionPath(ix.assetsDir, id)
}

// CoverPath returns the cover image path, or "" when there is none.
func (ix *Index) CoverPath(id string) string {
	return CoverPath(ix.assetsDir, id)
}

// PdfPath returns the PDF path, or "" when the publication has no PDF.
func (ix *Index) PdfPath(id string) string {
	return PdfPath(ix.assetsDir, id)
}

// Description returns the publication's description text, decoding UTF-8
// and falling back to Windows-1250 for files written by the legacy
// tooling. Results are cached.
func (ix *Index) Description(id string) (string, error) {
	if text, ok := ix.descCache.Get(id); ok {
		return text, nil
	}

	data, err := os.ReadFile(ix.DescriptionPath(id))
	if err != nil {
		return "", fmt.Errorf("reading description of %s: %w", id, err)
	}

	text, err := decodeText(data)
	if err != nil {
		return "", fmt.Errorf("decoding description of %s: %w", id, err)
	}

	ix.descCache.Add(id, text)
	return text, nil
}

// InvalidateDescription drops a cached description, for callers that just
// rewrote the file.
func (ix *Index) InvalidateDescription(id string) {
	ix.descCache.Remove(id)
}

// Membership resolves the category and optional subcategory a publication
// belongs to. Used by the result aggregator for scope filtering.
func (ix *Index) Membership(id string) (*Membership, error) {
	pub, err := ix.Get(id)
	if err != nil {
		return nil, err
	}
	typ := pub.CategoryType
	if !typ.Valid() {
		return nil, fmt.Errorf("publication %s has unknown type %q", id, typ)
	}

	row := ix.db.QueryRow(
		"SELECT name, parent_id FROM "+typ.table()+" WHERE id = ?", pub.CategoryID,
	)
	var name string
	var parent sql.NullInt64
	if err := row.Scan(&name, &parent); err != nil {
		if err == sql.ErrNoRows {
			return nil, &NotFoundError{Kind: "category", ID: fmt.Sprint(pub.CategoryID)}
		}
		return nil, err
	}

	if !parent.Valid {
		return &Membership{Type: typ, Category: name}, nil
	}

	var parentName string
	if err := ix.db.QueryRow(
		"SELECT name FROM "+typ.table()+" WHERE id = ?", parent.Int64,
	).Scan(&parentName); err != nil {
		if err == sql.ErrNoRows {
			return nil, &NotFoundError{Kind: "category", ID: fmt.Sprint(parent.Int64)}
		}
		return nil, err
	}

	return &Membership{Type: typ, Category: parentName, Subcategory: name}, nil
}

// decodeText interprets raw description bytes: valid UTF-8 passes through,
// anything else is treated as Windows-1250.
func decodeText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1250.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
