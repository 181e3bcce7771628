package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dgallion1/pagecraft/internal/results"
	"github.com/go-chi/chi/v5"
)

func (s *Server) lookupResult(w http.ResponseWriter, r *http.Request) *results.Record {
	rec := s.results.Get(chi.URLParam(r, "resultID"))
	if rec == nil {
		jsonError(w, "result not found", http.StatusNotFound)
	}
	return rec
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	rec := s.lookupResult(w, r)
	if rec == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// handlePreview serves the output inline under a sandbox CSP.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	rec := s.lookupResult(w, r)
	if rec == nil {
		return
	}
	w.Header().Set("Content-Type", rec.ContentType)
	w.Header().Set("Content-Security-Policy", "sandbox")
	w.Write([]byte(rec.Output))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	rec := s.lookupResult(w, r)
	if rec == nil {
		return
	}
	w.Header().Set("Content-Type", rec.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Filename))
	w.Write([]byte(rec.Output))
}
