package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/bohm/libris/pkg/catalog"
	"github.com/bohm/libris/pkg/search"
	"github.com/bohm/libris/pkg/version"
)

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version.APIVersion(),
	})
}

func (s *Server) HandleTree(w http.ResponseWriter, r *http.Request) {
	typ := catalog.Type(r.PathValue("type"))
	tree, err := s.store.LoadTree(typ)
	if err != nil {
		s.writeCatalogError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, TreeResponse{Type: typ, Categories: tree})
}

func (s *Server) HandleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req AddCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	id, err := s.store.AddCategory(req.Type, req.Name, req.ParentID)
	if err != nil {
		s.writeCatalogError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, AddCategoryResponse{ID: id})
}

func (s *Server) HandleRenameCategory(w http.ResponseWriter, r *http.Request) {
	typ, id, ok := s.pathCategory(w, r)
	if !ok {
		return
	}

	var req RenameCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := s.store.RenameCategory(typ, id, req.Name); err != nil {
		s.writeCatalogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	typ, id, ok := s.pathCategory(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteCategory(typ, id); err != nil {
		s.writeCatalogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleMoveCategory(w http.ResponseWriter, r *http.Request) {
	typ, id, ok := s.pathCategory(w, r)
	if !ok {
		return
	}

	var req MoveCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	newID, err := s.store.MoveAcrossType(typ, id, req.TargetType, req.TargetParent)
	if err != nil {
		s.writeCatalogError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, MoveCategoryResponse{ID: newID})
}

func (s *Server) HandleReorder(w http.ResponseWriter, r *http.Request) {
	typ := catalog.Type(r.PathValue("type"))

	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := s.store.ReorderSiblings(typ, req.ParentID, req.OrderedIDs); err != nil {
		s.writeCatalogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandlePublication(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pub, err := s.index.Get(id)
	if err != nil {
		s.writeCatalogError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, PublicationResponse{
		Publication:     *pub,
		DescriptionPath: s.index.DescriptionPath(id),
		CoverPath:       s.index.CoverPath(id),
		PdfPath:         s.index.PdfPath(id),
	})
}

// HandleSearch runs a search synchronously and returns the terminal event.
// Clients that want progress use the WebSocket endpoint instead.
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req search.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	s.applySearchDefaults(&req)

	executor := search.NewExecutor(s.index)
	terminal, err := executor.Run(r.Context(), req)
	if err != nil && terminal.Kind == "" {
		s.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, terminal)
}

// applySearchDefaults fills stage flags, sort key and result cap from the
// configured defaults when the request leaves them unset.
func (s *Server) applySearchDefaults(req *search.Request) {
	defaults := s.searchDefaults()
	if !req.Titles && !req.Descriptions && !req.PDF {
		req.Titles = defaults.Titles
		req.Descriptions = defaults.Descriptions
		req.PDF = defaults.PDF
	}
	if req.SortBy == "" {
		if key, err := search.ParseSortKey(defaults.SortBy); err == nil {
			req.SortBy = key
		}
	}
	if req.MaxResults == 0 {
		req.MaxResults = defaults.MaxResults
	}
}

func (s *Server) pathCategory(w http.ResponseWriter, r *http.Request) (catalog.Type, int64, bool) {
	typ := catalog.Type(r.PathValue("type"))
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "category id must be an integer")
		return typ, 0, false
	}
	return typ, id, true
}

// writeCatalogError maps the catalog error taxonomy onto HTTP statuses.
func (s *Server) writeCatalogError(w http.ResponseWriter, err error) {
	var ve *catalog.ValidationError
	var nfe *catalog.NotFoundError
	var se *catalog.StorageError
	switch {
	case errors.As(err, &ve):
		s.writeError(w, http.StatusBadRequest, "validation_error", ve.Reason)
	case errors.As(err, &nfe):
		s.writeError(w, http.StatusNotFound, "not_found", nfe.Error())
	case errors.As(err, &se):
		s.logger.Errorf("storage failure: %v", se)
		s.writeError(w, http.StatusInternalServerError, "storage_error", se.Error())
	default:
		s.logger.Errorf("internal error: %v", err)
		s.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
