// Package tools holds the tool registry, schema validation, and dispatch.
//
// # Overview
//
// Tool handlers register Definitions at process start. The registry is the
// single source of truth for tool metadata, consulted by the JSON-RPC router
// for tools/list and by the dispatcher for tools/call; it is never
// duplicated elsewhere.
//
// # Schemas
//
// Each tool declares a typed parameter schema over the primitive types
// string, integer, boolean, object and array, with required/optional
// markings. A generic validator checks every call once, before dispatch:
// missing required fields and type mismatches fail fast with the offending
// field named in the error. Missing optional fields are a handler concern.
//
// # Intent and confirmation
//
// Every tool carries an intent classification (read, sensitive_read, write).
// Whether invocation requires explicit user confirmation derives 1:1 from
// intent: write and sensitive_read require it, read does not.
//
// # Enabled flags
//
// The enabled flag is persisted in the settings store independently of the
// definition and read on every listing and call. Tools with no persisted
// setting are enabled. A disabled tool is reported as unknown on call so
// callers cannot probe for its existence.
//
// # Capability gate
//
// A Definition may name a required capability. The dispatcher checks it
// against the acting identity before invoking the handler, so a denied call
// can have no partial side effects.
package tools
