package api

import "github.com/bohm/libris/pkg/catalog"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type TreeResponse struct {
	Type       catalog.Type           `json:"type"`
	Categories []catalog.CategoryNode `json:"categories"`
}

type AddCategoryRequest struct {
	Type     catalog.Type `json:"type"`
	Name     string       `json:"name"`
	ParentID *int64       `json:"parent_id,omitempty"`
}

type AddCategoryResponse struct {
	ID int64 `json:"id"`
}

type RenameCategoryRequest struct {
	Name string `json:"name"`
}

type MoveCategoryRequest struct {
	TargetType   catalog.Type `json:"target_type"`
	TargetParent string       `json:"target_parent,omitempty"`
}

type MoveCategoryResponse struct {
	ID int64 `json:"id"`
}

type ReorderRequest struct {
	ParentID   *int64  `json:"parent_id,omitempty"`
	OrderedIDs []int64 `json:"ordered_ids"`
}

type PublicationResponse struct {
	catalog.Publication
	DescriptionPath string `json:"description_path"`
	CoverPath       string `json:"cover_path,omitempty"`
	PdfPath         string `json:"pdf_path,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
