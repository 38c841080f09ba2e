package api

import (
	"log/slog"
	"net/http"
	"strconv"
)

// handleListDeliveries returns recent delivery log entries.
// Accepts an optional ?limit=N query parameter (default 50).
func (s *Server) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.store.ListDeliveries(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list deliveries", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to list deliveries")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleDeliveryStats returns per-provider sent/failed counts.
func (s *Server) handleDeliveryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.ProviderStats(r.Context())
	if err != nil {
		s.logger.Error("failed to query provider stats", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to query provider stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
