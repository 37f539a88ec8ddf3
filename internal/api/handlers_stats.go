package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.gemini == nil || s.gemini.Stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"model":          s.cfg.GeminiModel,
		"fallback_model": s.cfg.GeminiFallbackModel,
		"queue_depth":    s.orchestrator.QueueDepth(),
		"stats":          s.gemini.Stats.Snapshot(),
	})
}
