// Package auth implements shared-token authentication for hearth-bridge.
//
// # Overview
//
// A single bearer secret is configured at startup. Requests present it either
// as an Authorization header or as a token query parameter (the header wins
// when both are present):
//
//	Authorization: Bearer <token>
//	POST /messages?session_id=abc&token=<token>
//
// The comparison against the configured secret is constant-time over SHA-256
// digests. When no secret is configured, every request is denied: a
// configured token is a prerequisite for any access.
//
// # Identity and capabilities
//
// A valid credential resolves to the configured acting identity. Each
// identity holds a set of capability names used by the tool dispatcher to
// gate execution; an identity with no configured capability list is treated
// as elevated and holds every capability.
//
// # Middleware
//
// Middleware rejects unauthenticated requests with 401 at the HTTP layer,
// before any JSON-RPC handling, and attaches the acting identity to the
// request context. RateLimitMiddleware adds per-identity token-bucket rate
// limiting for the message submission endpoint.
package auth
