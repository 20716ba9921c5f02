package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/bohm/libris/pkg/log"
)

// Store provides transactional CRUD and ordering for the per-type category
// trees and the publications that reference them.
//
// All mutating operations are serialized behind a single writer lock so a
// delete and a concurrent reorder of the same subtree cannot interleave.
// Reads take no lock; SQLite in WAL mode handles concurrent readers.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *log.Logger
}

// NewStore creates a store on top of an open, migrated database handle.
func NewStore(conn *sql.DB) *Store {
	return &Store{
		db:     conn,
		logger: log.ForComponent("catalog"),
	}
}

// DB exposes the underlying handle for maintenance commands.
func (s *Store) DB() *sql.DB {
	return s.db
}

// withTx runs fn inside a transaction, rolling back on any error. Domain
// errors (validation, not-found) pass through unchanged; everything else is
// surfaced as a single StorageError after rollback.
func (s *Store) withTx(op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return storageError(op, fmt.Errorf("beginning transaction: %w", err))
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				s.logger.Warnf("rollback failed for %s: %v", op, err)
			}
		}
	}()

	if err := fn(tx); err != nil {
		var ve *ValidationError
		var nfe *NotFoundError
		if errors.As(err, &ve) || errors.As(err, &nfe) {
			return err
		}
		return storageError(op, err)
	}

	if err := tx.Commit(); err != nil {
		return storageError(op, fmt.Errorf("committing: %w", err))
	}
	committed = true
	return nil
}

// AddCategory inserts a category (or subcategory when parentID is non-nil)
// and returns its id. The new row is appended to its sibling set, so its
// sort_order is one past the current maximum.
func (s *Store) AddCategory(typ Type, name string, parentID *int64) (int64, error) {
	if !typ.Valid() {
		return 0, validationErrorf("unknown publication type %q", typ)
	}
	if name == "" {
		return 0, validationErrorf("category name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var newID int64
	err := s.withTx("add category", func(tx *sql.Tx) error {
		if parentID != nil {
			parent, err := getCategoryTx(tx, typ, *parentID)
			if err != nil {
				if isNotFound(err) {
					return validationErrorf("parent category %d does not exist in type %q", *parentID, typ)
				}
				return err
			}
			if parent.ParentID != nil {
				return validationErrorf("category %q is already a subcategory; trees are at most two levels deep", parent.Name)
			}
		}

		order, err := nextSortOrderTx(tx, typ, parentID)
		if err != nil {
			return err
		}

		res, err := tx.Exec(
			"INSERT INTO "+typ.table()+" (name, parent_id, sort_order) VALUES (?, ?, ?)",
			name, parentID, order,
		)
		if err != nil {
			return fmt.Errorf("inserting category: %w", err)
		}
		newID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debugf("added category %q (id %d) to %s", name, newID, typ)
	return newID, nil
}

// RenameCategory changes a category's display name. Names are not unique;
// only existence is checked.
func (s *Store) RenameCategory(typ Type, id int64, newName string) error {
	if !typ.Valid() {
		return validationErrorf("unknown publication type %q", typ)
	}
	if newName == "" {
		return validationErrorf("category name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx("rename category", func(tx *sql.Tx) error {
		res, err := tx.Exec("UPDATE "+typ.table()+" SET name = ? WHERE id = ?", newName, id)
		if err != nil {
			return fmt.Errorf("renaming category: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &NotFoundError{Kind: "category", ID: strconv.FormatInt(id, 10)}
		}
		return nil
	})
}

// DeleteCategory deletes a category, all of its subcategories and every
// publication referencing any of the deleted rows, as a single atomic
// transaction.
func (s *Store) DeleteCategory(typ Type, id int64) error {
	if !typ.Valid() {
		return validationErrorf("unknown publication type %q", typ)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx("delete category", func(tx *sql.Tx) error {
		if _, err := getCategoryTx(tx, typ, id); err != nil {
			return err
		}

		doomed := []int64{id}
		children, err := childIDsTx(tx, typ, id)
		if err != nil {
			return err
		}
		doomed = append(doomed, children...)

		for _, catID := range doomed {
			if _, err := tx.Exec(
				"DELETE FROM publications WHERE category_type = ? AND category_id = ?",
				string(typ), catID,
			); err != nil {
				return fmt.Errorf("deleting publications of category %d: %w", catID, err)
			}
		}

		// Children first so the self-referencing foreign key stays satisfied.
		if _, err := tx.Exec("DELETE FROM "+typ.table()+" WHERE parent_id = ?", id); err != nil {
			return fmt.Errorf("deleting subcategories: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM "+typ.table()+" WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting category: %w", err)
		}

		s.logger.Infof("deleted category %d from %s (%d rows cascaded)", id, typ, len(doomed)-1)
		return nil
	})
}

// MoveAcrossType re-creates a category (and its subcategories) under a new
// publication type, re-points every affected publication to the new rows,
// then drops the originals. The whole move is one transaction; any failure
// leaves both types untouched.
func (s *Store) MoveAcrossType(typ Type, id int64, targetType Type, targetParentName string) (int64, error) {
	if !typ.Valid() {
		return 0, validationErrorf("unknown publication type %q", typ)
	}
	if !targetType.Valid() {
		return 0, validationErrorf("unknown publication type %q", targetType)
	}
	if typ == targetType {
		return 0, validationErrorf("source and target type are both %q; use reorder or reparent instead", typ)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var newID int64
	err := s.withTx("move category across types", func(tx *sql.Tx) error {
		src, err := getCategoryTx(tx, typ, id)
		if err != nil {
			return err
		}

		children, err := childCategoriesTx(tx, typ, id)
		if err != nil {
			return err
		}

		var newParentID *int64
		if targetParentName != "" {
			parent, err := findTopLevelByNameTx(tx, targetType, targetParentName)
			if err != nil {
				return err
			}
			if len(children) > 0 {
				return validationErrorf("category %q has subcategories and cannot become a subcategory of %q", src.Name, targetParentName)
			}
			newParentID = &parent.ID
		}

		order, err := nextSortOrderTx(tx, targetType, newParentID)
		if err != nil {
			return err
		}

		res, err := tx.Exec(
			"INSERT INTO "+targetType.table()+" (name, parent_id, sort_order) VALUES (?, ?, ?)",
			src.Name, newParentID, order,
		)
		if err != nil {
			return fmt.Errorf("inserting category into %s: %w", targetType, err)
		}
		newID, err = res.LastInsertId()
		if err != nil {
			return err
		}

		// Old id -> new id, for re-pointing publications afterwards.
		remapped := map[int64]int64{id: newID}

		for i, child := range children {
			res, err := tx.Exec(
				"INSERT INTO "+targetType.table()+" (name, parent_id, sort_order) VALUES (?, ?, ?)",
				child.Name, newID, i,
			)
			if err != nil {
				return fmt.Errorf("inserting subcategory %q into %s: %w", child.Name, targetType, err)
			}
			childID, err := res.LastInsertId()
			if err != nil {
				return err
			}
			remapped[child.ID] = childID
		}

		for oldID, mappedID := range remapped {
			if _, err := tx.Exec(
				"UPDATE publications SET category_id = ?, category_type = ? WHERE category_type = ? AND category_id = ?",
				mappedID, string(targetType), string(typ), oldID,
			); err != nil {
				return fmt.Errorf("re-pointing publications of category %d: %w", oldID, err)
			}
		}

		if _, err := tx.Exec("DELETE FROM "+typ.table()+" WHERE parent_id = ?", id); err != nil {
			return fmt.Errorf("deleting original subcategories: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM "+typ.table()+" WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting original category: %w", err)
		}

		s.logger.Infof("moved category %d from %s to %s (new id %d)", id, typ, targetType, newID)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newID, nil
}

// ReorderSiblings rewrites sort_order for a full sibling set to match the
// given sequence. orderedIDs must contain exactly the current siblings of
// parentID, in their new display order; positions come out 0-based and
// contiguous.
func (s *Store) ReorderSiblings(typ Type, parentID *int64, orderedIDs []int64) error {
	if !typ.Valid() {
		return validationErrorf("unknown publication type %q", typ)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx("reorder siblings", func(tx *sql.Tx) error {
		current, err := siblingIDsTx(tx, typ, parentID)
		if err != nil {
			return err
		}

		if len(current) != len(orderedIDs) {
			return validationErrorf("reorder lists %d categories but the sibling set has %d", len(orderedIDs), len(current))
		}
		seen := make(map[int64]bool, len(current))
		for _, id := range current {
			seen[id] = true
		}
		for _, id := range orderedIDs {
			if !seen[id] {
				return validationErrorf("category %d is not part of the sibling set", id)
			}
			delete(seen, id)
		}

		for position, id := range orderedIDs {
			if _, err := tx.Exec(
				"UPDATE "+typ.table()+" SET sort_order = ? WHERE id = ?",
				position, id,
			); err != nil {
				return fmt.Errorf("updating sort order of category %d: %w", id, err)
			}
		}
		return nil
	})
}

// Reparent moves a category under a new parent (or to the top level when
// newParentID is nil) within the same type, appending it to the new sibling
// set. The two-level depth invariant is enforced here as well.
func (s *Store) Reparent(typ Type, id int64, newParentID *int64) error {
	if !typ.Valid() {
		return validationErrorf("unknown publication type %q", typ)
	}
	if newParentID != nil && *newParentID == id {
		return validationErrorf("category cannot become its own parent")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx("reparent category", func(tx *sql.Tx) error {
		if _, err := getCategoryTx(tx, typ, id); err != nil {
			return err
		}

		if newParentID != nil {
			parent, err := getCategoryTx(tx, typ, *newParentID)
			if err != nil {
				if isNotFound(err) {
					return validationErrorf("parent category %d does not exist in type %q", *newParentID, typ)
				}
				return err
			}
			if parent.ParentID != nil {
				return validationErrorf("category %q is already a subcategory; trees are at most two levels deep", parent.Name)
			}
			children, err := childIDsTx(tx, typ, id)
			if err != nil {
				return err
			}
			if len(children) > 0 {
				return validationErrorf("category %d has subcategories and cannot become a subcategory itself", id)
			}
		}

		order, err := nextSortOrderTx(tx, typ, newParentID)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(
			"UPDATE "+typ.table()+" SET parent_id = ?, sort_order = ? WHERE id = ?",
			newParentID, order, id,
		); err != nil {
			return fmt.Errorf("reparenting category %d: %w", id, err)
		}
		return nil
	})
}

// LoadTree returns the full ordered forest for a publication type: top-level
// categories by sort_order, each with its subcategories by sort_order.
func (s *Store) LoadTree(typ Type) ([]CategoryNode, error) {
	if !typ.Valid() {
		return nil, validationErrorf("unknown publication type %q", typ)
	}

	rows, err := s.db.Query(
		"SELECT id, name, parent_id, sort_order FROM " + typ.table() + " ORDER BY sort_order, id",
	)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Warnf("failed to close rows: %v", err)
		}
	}()

	var top []CategoryNode
	childrenOf := make(map[int64][]Category)
	for rows.Next() {
		var cat Category
		var parent sql.NullInt64
		if err := rows.Scan(&cat.ID, &cat.Name, &parent, &cat.SortOrder); err != nil {
			return nil, fmt.Errorf("scanning category row: %w", err)
		}
		cat.Type = typ
		if parent.Valid {
			pid := parent.Int64
			cat.ParentID = &pid
			childrenOf[pid] = append(childrenOf[pid], cat)
		} else {
			top = append(top, CategoryNode{Category: cat})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Rows arrive ordered by sort_order, so both levels stay sorted.
	for i := range top {
		top[i].Subcategories = childrenOf[top[i].ID]
	}
	return top, nil
}

// GetCategory returns a single category row.
func (s *Store) GetCategory(typ Type, id int64) (*Category, error) {
	if !typ.Valid() {
		return nil, validationErrorf("unknown publication type %q", typ)
	}
	var cat *Category
	err := inReadTx(s.db, func(tx *sql.Tx) error {
		var err error
		cat, err = getCategoryTx(tx, typ, id)
		return err
	})
	return cat, err
}

// FindCategory resolves a category/subcategory pair by name within a type.
// subName may be empty to address a top-level category.
func (s *Store) FindCategory(typ Type, name, subName string) (*Category, error) {
	if !typ.Valid() {
		return nil, validationErrorf("unknown publication type %q", typ)
	}
	var cat *Category
	err := inReadTx(s.db, func(tx *sql.Tx) error {
		top, err := findTopLevelByNameTx(tx, typ, name)
		if err != nil {
			return err
		}
		if subName == "" {
			cat = top
			return nil
		}
		row := tx.QueryRow(
			"SELECT id, name, parent_id, sort_order FROM "+typ.table()+" WHERE parent_id = ? AND name = ?",
			top.ID, subName,
		)
		cat, err = scanCategory(row, typ)
		if isNotFound(err) {
			return &NotFoundError{Kind: "subcategory", ID: subName}
		}
		return err
	})
	return cat, err
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner, typ Type) (*Category, error) {
	var cat Category
	var parent sql.NullInt64
	if err := row.Scan(&cat.ID, &cat.Name, &parent, &cat.SortOrder); err != nil {
		return nil, err
	}
	cat.Type = typ
	if parent.Valid {
		pid := parent.Int64
		cat.ParentID = &pid
	}
	return &cat, nil
}

func getCategoryTx(tx *sql.Tx, typ Type, id int64) (*Category, error) {
	row := tx.QueryRow(
		"SELECT id, name, parent_id, sort_order FROM "+typ.table()+" WHERE id = ?", id,
	)
	cat, err := scanCategory(row, typ)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "category", ID: strconv.FormatInt(id, 10)}
	}
	return cat, err
}

func findTopLevelByNameTx(tx *sql.Tx, typ Type, name string) (*Category, error) {
	row := tx.QueryRow(
		"SELECT id, name, parent_id, sort_order FROM "+typ.table()+" WHERE parent_id IS NULL AND name = ?",
		name,
	)
	cat, err := scanCategory(row, typ)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "category", ID: name}
	}
	return cat, err
}

func childIDsTx(tx *sql.Tx, typ Type, id int64) ([]int64, error) {
	rows, err := tx.Query("SELECT id FROM "+typ.table()+" WHERE parent_id = ? ORDER BY sort_order, id", id)
	if err != nil {
		return nil, fmt.Errorf("querying subcategories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var childID int64
		if err := rows.Scan(&childID); err != nil {
			return nil, err
		}
		ids = append(ids, childID)
	}
	return ids, rows.Err()
}

func childCategoriesTx(tx *sql.Tx, typ Type, id int64) ([]Category, error) {
	rows, err := tx.Query(
		"SELECT id, name, parent_id, sort_order FROM "+typ.table()+" WHERE parent_id = ? ORDER BY sort_order, id", id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying subcategories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var children []Category
	for rows.Next() {
		cat, err := scanCategory(rows, typ)
		if err != nil {
			return nil, err
		}
		children = append(children, *cat)
	}
	return children, rows.Err()
}

func siblingIDsTx(tx *sql.Tx, typ Type, parentID *int64) ([]int64, error) {
	var rows *sql.Rows
	var err error
	if parentID == nil {
		rows, err = tx.Query("SELECT id FROM " + typ.table() + " WHERE parent_id IS NULL ORDER BY sort_order, id")
	} else {
		rows, err = tx.Query("SELECT id FROM "+typ.table()+" WHERE parent_id = ? ORDER BY sort_order, id", *parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying sibling set: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nextSortOrderTx(tx *sql.Tx, typ Type, parentID *int64) (int, error) {
	var max sql.NullInt64
	var err error
	if parentID == nil {
		err = tx.QueryRow("SELECT MAX(sort_order) FROM " + typ.table() + " WHERE parent_id IS NULL").Scan(&max)
	} else {
		err = tx.QueryRow("SELECT MAX(sort_order) FROM "+typ.table()+" WHERE parent_id = ?", *parentID).Scan(&max)
	}
	if err != nil {
		return 0, fmt.Errorf("querying max sort order: %w", err)
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64) + 1, nil
}

// inReadTx runs fn in a read-only snapshot so multi-statement reads see a
// consistent view.
func inReadTx(conn *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	return fn(tx)
}

func isNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}
