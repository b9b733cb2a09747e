// ABOUTME: The /messages handler: one JSON-RPC envelope per POST
// ABOUTME: Direct calls answer inline; session-scoped calls enqueue and 204

package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/2389/hearth-bridge/internal/mailbox"
	"github.com/2389/hearth-bridge/internal/rpc"
)

// handleMessages processes one JSON-RPC envelope. When session_id names a
// streaming session, the response is written into that session's mailbox
// and the POST returns an empty 204; the stream delivers it. Without a
// session the response comes back inline.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, rpc.MaxRequestBodySize))
	if err != nil {
		s.writeResponse(w, rpc.NewError(nil, rpc.CodeInvalidRequest, "request body too large", nil))
		return
	}

	req, errResp := rpc.ParseRequest(body)
	if errResp != nil {
		s.writeResponse(w, errResp)
		return
	}

	sessionID := mailbox.SanitizeSessionID(r.URL.Query().Get("session_id"))

	// The session-kill notification is never executed: it becomes a mailbox
	// directive so the stream loop ends at its next tick.
	if req.Method == rpc.MethodSessionKill {
		if sessionID != "" {
			if err := s.mailbox.PutKill(r.Context(), sessionID); err != nil {
				s.logger.Error("failed to enqueue kill", "session_id", sessionID, "error", err)
				s.writeResponse(w, rpc.NewError(req.ID, rpc.CodeInternalError, "failed to signal session", nil))
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := s.router.Route(r.Context(), req)
	if resp == nil {
		// Notification: acknowledged with no body.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if sessionID == "" {
		s.writeResponse(w, resp)
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		s.writeResponse(w, rpc.NewError(req.ID, rpc.CodeInternalError, "internal error", nil))
		return
	}

	var correlation *string
	if id := req.IDString(); id != "" {
		correlation = &id
	}
	if err := s.mailbox.Put(r.Context(), sessionID, correlation, payload); err != nil {
		s.logger.Error("failed to enqueue response", "session_id", sessionID, "error", err)
		s.writeResponse(w, rpc.NewError(req.ID, rpc.CodeInternalError, "failed to enqueue response", nil))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeResponse(w http.ResponseWriter, resp *rpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
