package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flynn-ai/jarvis/internal/agent"
	"github.com/flynn-ai/jarvis/internal/cost"
	"github.com/flynn-ai/jarvis/internal/stats"
	"github.com/flynn-ai/jarvis/pkg/protocol"
)

const defaultHistoryLimit = 10

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, protocol.Health{
		Status:    "healthy",
		Service:   "jarvis",
		Version:   Version,
		Message:   "JARVIS is operational",
		Timestamp: time.Now(),
	})
}

func (s *Server) processHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req protocol.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "No text provided")
		return
	}

	res := s.orch.Process(r.Context(), req.Text, req.Context)
	writeJSON(w, http.StatusOK, NewCommandResponse(res))
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	st := s.orch.Status()
	writeJSON(w, http.StatusOK, protocol.StatusResponse{
		Status:             "operational",
		User:               st.User,
		RingsLoaded:        len(st.Rings),
		Rings:              st.Rings,
		ConversationLength: st.ConversationLength,
		KnowledgeEndpoint:  st.KnowledgeEndpoint,
		ModelAvailable:     st.ModelAvailable,
		Breaker:            st.Breaker,
		Requests:           requestStats(st.Requests),
		Timestamp:          time.Now(),
	})
}

func (s *Server) ringsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	all := s.orch.Registry().All()
	rings := make([]protocol.Ring, 0, len(all))
	for _, sp := range all {
		rings = append(rings, protocol.Ring{
			ID:           sp.ID,
			Name:         sp.Name,
			Role:         sp.Role,
			Capabilities: sp.Capabilities,
			Triggers:     sp.Triggers,
		})
	}
	writeJSON(w, http.StatusOK, protocol.RingsResponse{Success: true, Rings: rings, Count: len(rings)})
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records := s.orch.History(limit)
	history := make([]protocol.HistoryRecord, len(records))
	for i, rec := range records {
		history[i] = historyRecord(rec)
	}
	writeJSON(w, http.StatusOK, protocol.HistoryResponse{
		Success: true,
		History: history,
		Count:   len(history),
		Total:   s.orch.HistoryLen(),
	})
}

func (s *Server) costStatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, protocol.CostStatsResponse{
		Success:   true,
		Stats:     *usageStats(s.orch.Usage()),
		Timestamp: time.Now(),
	})
}

// NewCommandResponse converts an orchestrator result to its wire form.
func NewCommandResponse(res *agent.Result) *protocol.CommandResponse {
	return &protocol.CommandResponse{
		Success:    res.Success,
		Response:   res.Response,
		Intent:     string(res.Intent.Category),
		Confidence: res.Intent.Confidence,
		Complexity: res.Intent.Complexity,
		Usage:      usageStats(res.Usage),
		Timestamp:  res.Timestamp,
		Error:      res.Error,
	}
}

func usageStats(u cost.Stats) *protocol.UsageStats {
	return &protocol.UsageStats{
		TotalCalls:               u.TotalCalls,
		FastCalls:                u.FastCalls,
		AdvancedCalls:            u.AdvancedCalls,
		CacheHits:                u.CacheHits,
		CacheSize:                u.CacheSize,
		EstimatedCostUSD:         u.EstimatedCostUSD,
		FastPercentage:           u.FastPercentage,
		PromptCacheReadTokens:    u.PromptCacheReadTokens,
		PromptCacheCreatedTokens: u.PromptCacheCreatedTokens,
	}
}

func requestStats(st *stats.Stats) *protocol.RequestStats {
	if st == nil {
		return nil
	}
	return &protocol.RequestStats{
		Uptime:       st.Uptime,
		RequestCount: st.RequestCount,
		ErrorCount:   st.ErrorCount,
		AvgLatencyMs: st.AvgLatencyMs,
		Goroutines:   st.Goroutines,
		HeapAllocMB:  st.HeapAllocMB,
	}
}

func historyRecord(rec agent.ConversationRecord) protocol.HistoryRecord {
	out := protocol.HistoryRecord{
		ID:        rec.ID,
		Timestamp: rec.Timestamp,
		User:      rec.Input,
		Context:   rec.Context,
		Assistant: rec.Response,
		Error:     rec.Error,
	}
	if rec.Intent != nil {
		out.Intent = string(rec.Intent.Category)
		out.Complexity = rec.Intent.Complexity
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, protocol.ErrorResponse{Success: false, Error: msg})
}
