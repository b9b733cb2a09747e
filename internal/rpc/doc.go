// Package rpc implements the JSON-RPC 2.0 surface of hearth-bridge.
//
// ParseRequest decodes one envelope and Router.Route dispatches it:
// initialize, tools/list, tools/call (both {name,arguments} and {tool,args}
// parameter shapes), resources/list, prompts/list, and notifications.
// Notifications are acknowledged without a reply; unknown non-notification
// methods get a method-not-found error.
//
// Responses come back as values rather than being written to the wire, so
// the server layer can reply inline on a direct call or enqueue the response
// into a streaming session's mailbox.
//
// Error codes follow JSON-RPC 2.0 for the standard five and use the
// reserved server range for the rest: unknown tool (-32001), invalid
// arguments (-32002), permission denied (-32003), rate limited (-32029).
package rpc
