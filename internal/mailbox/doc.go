// Package mailbox implements the durable per-session message queue.
//
// A streaming connection and the request that wants to reply to it are
// different execution contexts with no shared memory, possibly in different
// processes. The mailbox therefore lives in the store instead of a channel:
// Put stamps an absolute expiry at write time, Drain atomically removes and
// returns the live messages oldest-first, and a cron-driven Sweeper deletes
// expired rows across all sessions.
//
// Session ids originate from client input and are sanitized to a restricted
// character set and length before use as a lookup key.
//
// PutKill enqueues a kill directive; the stream loop checks each drained
// payload with IsKill and ends the session when it sees one.
package mailbox
