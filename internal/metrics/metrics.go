// ABOUTME: Prometheus metrics for sessions, mailbox traffic, and tool calls
// ABOUTME: Exposes a promhttp handler for the configured metrics endpoint

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveSessions tracks currently open streaming sessions
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hearth_active_sessions",
			Help: "Number of open streaming sessions",
		},
	)

	// MessagesEnqueued counts messages written to the session mailbox
	MessagesEnqueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hearth_mailbox_enqueued_total",
			Help: "Total messages enqueued into session mailboxes",
		},
	)

	// MessagesDrained counts messages delivered from the mailbox to streams
	MessagesDrained = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hearth_mailbox_drained_total",
			Help: "Total messages drained from session mailboxes",
		},
	)

	// MessagesExpired counts messages removed by the TTL sweep
	MessagesExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hearth_mailbox_expired_total",
			Help: "Total expired messages removed by the sweep",
		},
	)

	// Heartbeats counts heartbeat events emitted on streams
	Heartbeats = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hearth_stream_heartbeats_total",
			Help: "Total heartbeat events emitted",
		},
	)

	// SessionsEnded counts terminated sessions by reason
	SessionsEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_sessions_ended_total",
			Help: "Total streaming sessions ended, by reason",
		},
		[]string{"reason"},
	)

	// ToolCalls tracks tool invocations by tool and outcome
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_tool_calls_total",
			Help: "Total tool calls, by tool and status",
		},
		[]string{"tool", "status"},
	)

	// RPCRequests tracks JSON-RPC requests by method
	RPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearth_rpc_requests_total",
			Help: "Total JSON-RPC requests, by method",
		},
		[]string{"method"},
	)
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
