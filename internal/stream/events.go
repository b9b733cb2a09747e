// ABOUTME: Server-Sent Event framing for the streaming transport
// ABOUTME: endpoint/message/heartbeat/bye events flushed per write

package stream

import (
	"fmt"
	"net/http"
)

// Event names emitted on the stream. The endpoint event is always first;
// bye is always last.
const (
	EventEndpoint  = "endpoint"
	EventMessage   = "message"
	EventHeartbeat = "heartbeat"
	EventBye       = "bye"
)

// heartbeatPayload keeps intermediaries from closing an otherwise quiet
// connection.
const heartbeatPayload = `{"status":"alive"}`

// writeEvent frames and flushes one SSE event. data must be a single line;
// payloads are compact JSON or a bare URL, neither of which embeds newlines.
func writeEvent(w http.ResponseWriter, flusher http.Flusher, event, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// writeMessageEvent frames one drained mailbox payload, carrying the session
// id as the SSE event id. An auto-reconnecting EventSource client echoes
// that id back in Last-Event-ID, which is how it recovers its session.
func writeMessageEvent(w http.ResponseWriter, flusher http.Flusher, sessionID string, payload []byte) error {
	if _, err := fmt.Fprintf(w, "event: %s\nid: %s\ndata: %s\n\n",
		EventMessage, sessionID, payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// setSSEHeaders prepares the response for streaming. X-Accel-Buffering
// disables proxy buffering in nginx-style intermediaries.
func setSSEHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}
