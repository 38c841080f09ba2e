package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shaharia-lab/courier/internal/dispatch"
	"github.com/shaharia-lab/courier/internal/notification"
)

// sendRequest is the POST /api/send payload: the message plus optional
// provider selection. Provider targets a single provider; Providers sets an
// explicit failover order. Both empty means the configured priority order.
type sendRequest struct {
	notification.Message
	Provider  string   `json:"provider,omitempty"`
	Providers []string `json:"providers,omitempty"`
}

// handleSend validates and dispatches a message. Rejected messages and
// unknown provider names map to 400; delivery failures, including
// exhaustion, are reported in the 200 response body with success=false.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}

	names := req.Providers
	if req.Provider != "" {
		names = append([]string{req.Provider}, names...)
	}

	out, err := s.dispatcher.Dispatch(r.Context(), req.Message, names...)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, dispatch.ErrUnknownProvider) && req.Message.Validate() == nil {
			status = http.StatusInternalServerError
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, out)
}
