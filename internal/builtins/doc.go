// Package builtins registers the tools the bridge ships with: a base pack
// of diagnostics (ping, echo, current_time) and a notes pack of per-identity
// key-value storage. Note mutations require the "notes" capability; every
// other builtin is an ungated read.
package builtins
