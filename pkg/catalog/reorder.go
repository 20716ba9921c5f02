package catalog

// DropIntent describes a finished drag-and-drop gesture over a rendered
// category tree, reduced to the data the store needs. The UI layer builds
// one of these and hands it to ApplyDrop; it must re-render from LoadTree
// afterwards instead of trusting its in-memory tree, because a failed
// persistence step leaves the stored order authoritative.
type DropIntent struct {
	Type Type
	ID   int64

	// Reorder within the unchanged sibling list: the full sibling set in
	// its new order. Nil when the gesture changes the parent instead.
	SiblingOrder []int64
	ParentID     *int64 // parent of the sibling set being reordered

	// Reparent: destination parent within the same type. NewParentID nil
	// means "to the top level".
	Reparent    bool
	NewParentID *int64

	// Cross-type move: when TargetType differs from Type the drop becomes
	// a MoveAcrossType with an optional named destination parent.
	TargetType       Type
	TargetParentName string
}

// ApplyDrop validates a drop gesture and dispatches it to the matching
// store primitive. Source and destination must sit at the same tree depth;
// turning a top-level category into a subcategory (or the reverse) is not
// something a bare drop may do.
func (s *Store) ApplyDrop(intent DropIntent) error {
	if !intent.Type.Valid() {
		return validationErrorf("unknown publication type %q", intent.Type)
	}

	if intent.TargetType != "" && intent.TargetType != intent.Type {
		_, err := s.MoveAcrossType(intent.Type, intent.ID, intent.TargetType, intent.TargetParentName)
		return err
	}

	node, err := s.GetCategory(intent.Type, intent.ID)
	if err != nil {
		return err
	}

	if intent.Reparent {
		// Same-depth rule: a top-level category may only move to the top
		// level, a subcategory only under another top-level parent.
		if node.ParentID == nil && intent.NewParentID != nil {
			return validationErrorf("top-level category %q cannot be dropped into another category", node.Name)
		}
		if node.ParentID != nil && intent.NewParentID == nil {
			return validationErrorf("subcategory %q cannot be dropped at the top level", node.Name)
		}
		return s.Reparent(intent.Type, intent.ID, intent.NewParentID)
	}

	if len(intent.SiblingOrder) == 0 {
		return validationErrorf("drop gesture carries neither a sibling order nor a new parent")
	}

	// The reordered set must be the node's own sibling set.
	if (node.ParentID == nil) != (intent.ParentID == nil) {
		return validationErrorf("sibling order does not match the category's depth")
	}
	if node.ParentID != nil && *node.ParentID != *intent.ParentID {
		return validationErrorf("category %d is not a child of parent %d", intent.ID, *intent.ParentID)
	}

	return s.ReorderSiblings(intent.Type, intent.ParentID, intent.SiblingOrder)
}
