// Package api exposes the catalog and the search engine over HTTP. Search
// runs asynchronously: a WebSocket endpoint streams progress, status and
// the final result batch to the client.
package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/bohm/libris/pkg/catalog"
	"github.com/bohm/libris/pkg/config"
	"github.com/bohm/libris/pkg/log"
)

type Server struct {
	store  *catalog.Store
	index  *catalog.Index
	logger *log.Logger

	mu       sync.RWMutex
	defaults config.SearchDefaults
}

func NewServer(store *catalog.Store, index *catalog.Index, defaults config.SearchDefaults) *Server {
	return &Server{
		store:    store,
		index:    index,
		defaults: defaults,
		logger:   log.ForComponent("api"),
	}
}

// SetSearchDefaults swaps the default search settings, used by config hot
// reload in the serve command.
func (s *Server) SetSearchDefaults(defaults config.SearchDefaults) {
	s.mu.Lock()
	s.defaults = defaults
	s.mu.Unlock()
}

func (s *Server) searchDefaults() config.SearchDefaults {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaults
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: error, Message: message})
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
