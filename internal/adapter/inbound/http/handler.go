package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Sentinel-Gate/awaymail/internal/domain/gate"
	"github.com/Sentinel-Gate/awaymail/internal/port/inbound"
	"github.com/Sentinel-Gate/awaymail/pkg/xmpp"
)

// maxRequestBodySize is the maximum allowed request body size (1 MB).
const maxRequestBodySize = 1 << 20

// InterceptRequest is the body of POST /v1/intercept.
type InterceptRequest struct {
	Message   json.RawMessage `json:"message"`
	Processed bool            `json:"processed"`
	Read      bool            `json:"read"`
}

// InterceptResponse reports what happened to the message.
type InterceptResponse struct {
	Accepted  bool   `json:"accepted"`
	Action    string `json:"action,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
	// RequestID echoes the X-Request-ID assigned to the request.
	RequestID string `json:"request_id,omitempty"`
}

// interceptHandler decodes a message and runs it through the dispatcher.
func interceptHandler(dispatcher inbound.MessageDispatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req InterceptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		if len(req.Message) == 0 {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		msg, err := xmpp.DecodeMessage(req.Message)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		logger := LoggerFromContext(r.Context())
		ctx, decision := gate.CaptureDecision(r.Context())

		resp := InterceptResponse{Accepted: true, RequestID: RequestIDFromContext(r.Context())}
		if err := dispatcher.Dispatch(ctx, msg, req.Processed, req.Read); err != nil {
			resp.Accepted = false
			resp.Error = err.Error()
		}
		if decision.Reason != "" {
			resp.Action = decision.Action.String()
			resp.Reason = string(decision.Reason)
		}

		logger.Debug("message intercepted",
			"id", msg.ID,
			"to", xmpp.BareString(msg.To),
			"accepted", resp.Accepted,
			"reason", resp.Reason,
		)
		writeJSON(w, http.StatusOK, resp)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
