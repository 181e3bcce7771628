package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleFallbackStats(w http.ResponseWriter, r *http.Request) {
	if s.fallback == nil {
		jsonError(w, "generative fallback unavailable", http.StatusServiceUnavailable)
		return
	}

	p := s.fallback.Provider()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"provider": p.Name(),
		"model":    p.Model(),
		"stats":    s.fallback.Stats().Snapshot(),
	})
}
