// Package api serves the read-only run-history HTTP surface (domain-stack
// addition over component C12's Postgres audit trail): health/version
// probes plus per-archive and recent-run listings, guarded by an API key.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/rpienaar/vaultkeeper/internal/history"
)

// APIVersion is the current API version. Increment when adding new endpoints.
const APIVersion = "1.0.0"

// runLister is the narrow slice of *history.Store this package needs,
// so tests can substitute a fake instead of dialing Postgres.
type runLister interface {
	ListRecent(ctx context.Context, limit int) ([]history.Run, error)
	ListForArchive(ctx context.Context, archive string) ([]history.Run, error)
}

type Server struct {
	store  runLister
	apiKey string
	mux    *http.ServeMux
}

func NewServer(store runLister, apiKey string) *Server {
	s := &Server{
		store:  store,
		apiKey: apiKey,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
	s.mux.HandleFunc("GET /runs", s.requireAPIKey(s.handleRecentRuns))
	s.mux.HandleFunc("GET /runs/{archive}", s.requireAPIKey(s.handleRunsForArchive))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.Printf("%s %s", r.Method, r.URL.Path)
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"version": APIVersion})
}
