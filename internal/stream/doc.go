// Package stream serves Server-Sent Event sessions.
//
// A connection opens by resolving or minting a session id and announcing
// the callback URL as the first event. It then polls on a fixed tick:
// check for client disconnect, check the idle ceiling, drain the mailbox
// and emit one message event per item, and heartbeat when nothing has gone
// out for a while. A drained kill directive ends the session immediately.
// Every ending emits a best-effort bye event before releasing the
// connection.
//
// All per-session state lives on the handler's stack and belongs to that
// one connection, so the loop needs no locks. Tool dispatch happens in
// other, short-lived requests and is never interrupted by a stream ending.
package stream
