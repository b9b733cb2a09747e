// Package store provides SQLite-backed persistence for hearth-bridge.
//
// Four tables live in one database file: mailbox (the durable per-session
// message queue), tool_settings (per-tool enabled flags), tool_profiles
// (named saved tool subsets), and notes (the builtin note tools' records).
//
// The mailbox is the load-bearing table. Messages are appended with an
// absolute expiry and drained in FIFO order by auto-increment id; a drain
// selects and deletes inside one transaction so each message is delivered
// at most once even when two requests race on the same session. Expired
// rows are invisible to drains and removed in bulk by SweepExpired.
//
// The database uses WAL journaling with a 5s busy timeout via the pure-Go
// modernc.org/sqlite driver, so no cgo is required.
package store
