// errors.go — Structured error handling and error codes for MCP tools.
// Defines error constants, StructuredError type, and error response construction.
package mcp

import (
	"encoding/json"
	"fmt"
)

// Error codes are self-describing snake_case strings.
// Every code tells the calling LLM what went wrong and whether retrying helps.
const (
	// Validation errors — the LLM can fix arguments and retry immediately.
	ErrInvalidJSON  = "invalid_json"
	ErrMissingParam = "missing_param"
	ErrInvalidParam = "invalid_param"
	ErrUnknownTool  = "unknown_tool"

	// Auth errors — the caller's credentials are missing or rejected upstream.
	ErrAuthError = "auth_error"

	// Rate-limit / payment errors — transient, retryable with backoff.
	ErrRateLimited = "rate_limited"
	ErrPayment     = "payment_required"

	// Network errors — the target host could not be reached or timed out.
	ErrNetwork = "network_error"

	// Server errors — the upstream fetch target returned 5xx or similar.
	ErrUpstreamServer = "upstream_server_error"

	// Processing errors — content was fetched but could not be cleaned/extracted.
	ErrProcessing = "processing_error"

	// Session errors — the MCP session referenced does not exist or has expired.
	ErrSessionNotFound = "session_not_found"
	ErrSessionExpired  = "session_expired"

	// Protocol errors — malformed JSON-RPC framing.
	ErrProtocol = "protocol_error"

	// State errors.
	ErrNotInitialized = "not_initialized"
	ErrNoData         = "no_data"
	ErrCursorExpired  = "cursor_expired"
	ErrHostNotAllowed = "host_not_allowed"

	// Internal errors — do not retry.
	ErrInternal      = "internal_error"
	ErrMarshalFailed = "marshal_failed"
)

// StructuredError is embedded in MCP text content. Every field is
// self-describing so an LLM can act on it without a lookup table.
type StructuredError struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	Retry        string `json:"retry"`
	Retryable    bool   `json:"retryable"`
	RetryAfterMs int    `json:"retry_after_ms,omitempty"`
	Final        bool   `json:"final,omitempty"`
	Param        string `json:"param,omitempty"`
	Hint         string `json:"hint,omitempty"`
}

// StructuredErrorResponse constructs an MCP error response. Format:
//
//	Error: missing_param — Add the 'url' parameter and call again
//	{"error":"missing_param","message":"...","retry":"...","hint":"..."}
//
// The retry string is a plain-English instruction the LLM can follow directly.
func StructuredErrorResponse(code, message, retry string, opts ...func(*StructuredError)) json.RawMessage {
	se := StructuredError{Error: code, Message: message, Retry: retry}
	for _, defaultOpt := range RetryDefaultsForCode(code) {
		defaultOpt(&se)
	}
	for _, opt := range opts {
		opt(&se)
	}

	// Error impossible: StructuredError is a simple struct with no circular refs or unsupported types.
	seJSON, _ := json.Marshal(se)
	text := fmt.Sprintf("Error: %s — %s\n%s", code, retry, string(seJSON))

	result := ToolResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
		IsError: true,
	}
	return SafeMarshal(result, `{"content":[{"type":"text","text":"Internal error: failed to marshal result"}],"isError":true}`)
}

// WithParam is an option function to add param field to StructuredError.
func WithParam(p string) func(*StructuredError) {
	return func(se *StructuredError) { se.Param = p }
}

// WithHint is an option function to add hint field to StructuredError.
func WithHint(h string) func(*StructuredError) {
	return func(se *StructuredError) { se.Hint = h }
}

// WithRetryable marks whether the error is retryable by the LLM.
func WithRetryable(retryable bool) func(*StructuredError) {
	return func(se *StructuredError) { se.Retryable = retryable }
}

// WithRetryAfterMs sets the suggested delay before retrying (milliseconds).
func WithRetryAfterMs(ms int) func(*StructuredError) {
	return func(se *StructuredError) { se.RetryAfterMs = ms }
}

// WithFinal marks a structured error as terminal for an async crawl job.
func WithFinal(final bool) func(*StructuredError) {
	return func(se *StructuredError) { se.Final = final }
}

// RetryDefaultsForCode returns option functions that set retryable and retry_after_ms
// based on the error code. Retryable errors are transient conditions the caller can
// retry after a brief delay; non-retryable errors require changing the input.
func RetryDefaultsForCode(code string) []func(*StructuredError) {
	switch code {
	case ErrNetwork:
		return []func(*StructuredError){WithRetryable(true), WithRetryAfterMs(1000)}
	case ErrUpstreamServer:
		return []func(*StructuredError){WithRetryable(true), WithRetryAfterMs(2000)}
	case ErrRateLimited:
		return []func(*StructuredError){WithRetryable(true), WithRetryAfterMs(1000)}
	case ErrCursorExpired:
		return []func(*StructuredError){WithRetryable(true), WithRetryAfterMs(500)}
	case ErrNoData:
		return []func(*StructuredError){WithRetryable(true), WithRetryAfterMs(2000)}
	case ErrSessionExpired:
		return []func(*StructuredError){WithRetryable(true), WithRetryAfterMs(0)}
	default:
		return []func(*StructuredError){WithRetryable(false)}
	}
}
