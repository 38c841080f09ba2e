package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/courier/internal/health"
)

// providerInfo pairs a registered provider with its latest probe outcome.
type providerInfo struct {
	Name   string         `json:"name"`
	Health *health.Status `json:"health,omitempty"`
}

// handleListProviders returns the registered providers in priority order
// with their cached health status.
func (s *Server) handleListProviders(w http.ResponseWriter, _ *http.Request) {
	byName := make(map[string]health.Status)
	if s.prober != nil {
		for _, st := range s.prober.Statuses() {
			byName[st.Provider] = st
		}
	}

	out := make([]providerInfo, 0, len(s.dispatcher.Providers()))
	for _, name := range s.dispatcher.Providers() {
		info := providerInfo{Name: name}
		if st, ok := byName[name]; ok {
			info.Health = &st
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleValidateProvider runs an on-demand configuration probe against one
// provider. The probe never sends a message.
func (s *Server) handleValidateProvider(w http.ResponseWriter, r *http.Request) {
	if s.prober == nil {
		writeError(w, http.StatusServiceUnavailable, "health probing is not enabled")
		return
	}

	name := chi.URLParam(r, "name")
	status, err := s.prober.Probe(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}
