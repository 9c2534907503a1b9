package mcpsession

// Error is a session-lifecycle fault: an initialize call in the wrong state,
// a method routed against an unknown or expired session, or anything else
// spec §4.8 calls out as a session error rather than a tool-level failure.
// The HTTP transport (internal/server) maps this to a 4xx with a JSON-RPC
// error envelope; it is distinct from mcp.Error, which is the wire shape.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// errNoValidSession is returned whenever a request's session id is absent,
// unknown, or used in a way its state machine forbids (spec §4.8's single
// catch-all message for all such cases).
var errNoValidSession = &Error{Message: "No valid session ID or not an initialization request"}
