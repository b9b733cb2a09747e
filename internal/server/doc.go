// Package server assembles the bridge behind one HTTP listener.
//
// Routes:
//
//	GET|POST /sse        the streaming transport (auth, rate limit)
//	POST     /messages   one JSON-RPC envelope per request (auth, rate limit)
//	GET      /healthz    liveness, unauthenticated
//	GET      /metrics    Prometheus, when enabled
//
// Authentication runs outermost so an invalid credential is rejected with a
// plain 401 before any JSON-RPC handling; the rate limiter sits inside it
// and keys on the authenticated identity.
package server
