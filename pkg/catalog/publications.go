package catalog

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// NewPublicationID returns a fresh identifier for a publication. The id also
// names the publication's asset directory.
func NewPublicationID() string {
	return uuid.NewString()
}

// AddPublication inserts a publication row after checking that its category
// exists in the given type. Pub.ID is assigned when empty.
func (s *Store) AddPublication(pub *Publication) error {
	if pub.Title == "" {
		return validationErrorf("publication title must not be empty")
	}
	if !pub.CategoryType.Valid() {
		return validationErrorf("unknown publication type %q", pub.CategoryType)
	}
	if pub.ID == "" {
		pub.ID = NewPublicationID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx("add publication", func(tx *sql.Tx) error {
		if _, err := getCategoryTx(tx, pub.CategoryType, pub.CategoryID); err != nil {
			if isNotFound(err) {
				return validationErrorf("category %d does not exist in type %q", pub.CategoryID, pub.CategoryType)
			}
			return err
		}

		_, err := tx.Exec(
			"INSERT INTO publications (id, title, author, year, category_id, category_type) VALUES (?, ?, ?, ?, ?, ?)",
			pub.ID, pub.Title, nullString(pub.Author), nullInt(pub.Year), pub.CategoryID, string(pub.CategoryType),
		)
		if err != nil {
			return fmt.Errorf("inserting publication %s: %w", pub.ID, err)
		}
		return nil
	})
}

// UpdatePublication rewrites the metadata row of an existing publication.
func (s *Store) UpdatePublication(pub *Publication) error {
	if pub.Title == "" {
		return validationErrorf("publication title must not be empty")
	}
	if !pub.CategoryType.Valid() {
		return validationErrorf("unknown publication type %q", pub.CategoryType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx("update publication", func(tx *sql.Tx) error {
		if _, err := getCategoryTx(tx, pub.CategoryType, pub.CategoryID); err != nil {
			if isNotFound(err) {
				return validationErrorf("category %d does not exist in type %q", pub.CategoryID, pub.CategoryType)
			}
			return err
		}

		res, err := tx.Exec(
			"UPDATE publications SET title = ?, author = ?, year = ?, category_id = ?, category_type = ? WHERE id = ?",
			pub.Title, nullString(pub.Author), nullInt(pub.Year), pub.CategoryID, string(pub.CategoryType), pub.ID,
		)
		if err != nil {
			return fmt.Errorf("updating publication %s: %w", pub.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &NotFoundError{Kind: "publication", ID: pub.ID}
		}
		return nil
	})
}

// MovePublication re-points a publication at another category, possibly of a
// different type. Asset files stay where they are; only metadata moves.
func (s *Store) MovePublication(id string, targetType Type, targetCategoryID int64) error {
	if !targetType.Valid() {
		return validationErrorf("unknown publication type %q", targetType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx("move publication", func(tx *sql.Tx) error {
		if _, err := getCategoryTx(tx, targetType, targetCategoryID); err != nil {
			if isNotFound(err) {
				return validationErrorf("category %d does not exist in type %q", targetCategoryID, targetType)
			}
			return err
		}

		res, err := tx.Exec(
			"UPDATE publications SET category_id = ?, category_type = ? WHERE id = ?",
			targetCategoryID, string(targetType), id,
		)
		if err != nil {
			return fmt.Errorf("moving publication %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &NotFoundError{Kind: "publication", ID: id}
		}
		return nil
	})
}

// DeletePublication removes a publication row. When assetsDir is non-empty
// the publication's asset directory is removed as well, after the row commit
// succeeds; a failed file removal is reported but cannot undo the delete.
func (s *Store) DeletePublication(id string, assetsDir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx("delete publication", func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM publications WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("deleting publication %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &NotFoundError{Kind: "publication", ID: id}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if assetsDir != "" {
		dir := PublicationDir(assetsDir, id)
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warnf("failed to remove asset directory %s: %v", dir, err)
			return fmt.Errorf("removing asset directory: %w", err)
		}
	}
	return nil
}

// GetPublication returns a single publication row.
func (s *Store) GetPublication(id string) (*Publication, error) {
	row := s.db.QueryRow(
		"SELECT id, title, author, year, category_id, category_type FROM publications WHERE id = ?", id,
	)
	pub, err := scanPublication(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "publication", ID: id}
	}
	return pub, err
}

// PublicationsInCategory lists publications directly under one category.
func (s *Store) PublicationsInCategory(typ Type, categoryID int64) ([]Publication, error) {
	if !typ.Valid() {
		return nil, validationErrorf("unknown publication type %q", typ)
	}

	rows, err := s.db.Query(
		"SELECT id, title, author, year, category_id, category_type FROM publications WHERE category_type = ? AND category_id = ? ORDER BY title",
		string(typ), categoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying publications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pubs []Publication
	for rows.Next() {
		pub, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, *pub)
	}
	return pubs, rows.Err()
}

func scanPublication(row rowScanner) (*Publication, error) {
	var pub Publication
	var author sql.NullString
	var year sql.NullInt64
	var typ string
	if err := row.Scan(&pub.ID, &pub.Title, &author, &year, &pub.CategoryID, &typ); err != nil {
		return nil, err
	}
	pub.CategoryType = Type(typ)
	if author.Valid {
		pub.Author = author.String
	}
	if year.Valid {
		y := int(year.Int64)
		pub.Year = &y
	}
	return &pub, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}
