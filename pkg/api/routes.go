package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tree/{type}", s.HandleTree)
	mux.HandleFunc("POST /api/categories", s.HandleAddCategory)
	mux.HandleFunc("PUT /api/categories/{type}/{id}", s.HandleRenameCategory)
	mux.HandleFunc("DELETE /api/categories/{type}/{id}", s.HandleDeleteCategory)
	mux.HandleFunc("POST /api/categories/{type}/{id}/move", s.HandleMoveCategory)
	mux.HandleFunc("POST /api/categories/{type}/reorder", s.HandleReorder)
	mux.HandleFunc("GET /api/publications/{id}", s.HandlePublication)
	mux.HandleFunc("POST /api/search", s.HandleSearch)
	mux.HandleFunc("GET /api/search/ws", s.HandleSearchWS)
	mux.HandleFunc("GET /health", s.HandleHealth)
}
