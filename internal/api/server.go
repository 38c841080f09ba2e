// Package api implements the REST handlers for submitting messages and
// inspecting deliveries, providers, and build info.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/courier/internal/dispatch"
	"github.com/shaharia-lab/courier/internal/health"
	"github.com/shaharia-lab/courier/internal/notification"
	"github.com/shaharia-lab/courier/internal/storage"
)

const errInvalidJSONBody = "invalid JSON body"

// Dispatcher is the subset of the dispatch API the handlers need.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg notification.Message, names ...string) (*dispatch.Outcome, error)
	Providers() []string
}

// Server holds all dependencies for the REST API handlers.
type Server struct {
	dispatcher Dispatcher
	store      storage.DeliveryStore
	prober     *health.Prober
	logger     *slog.Logger
}

// New creates a new API Server backed by the provided collaborators.
func New(d Dispatcher, store storage.DeliveryStore, prober *health.Prober, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		dispatcher: d,
		store:      store,
		prober:     prober,
		logger:     logger,
	}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	r.Post("/send", s.handleSend)

	r.Get("/deliveries", s.handleListDeliveries)
	r.Get("/deliveries/stats", s.handleDeliveryStats)

	r.Get("/providers", s.handleListProviders)
	r.Post("/providers/{name}/validate", s.handleValidateProvider)

	r.Get("/version", s.handleVersion)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
