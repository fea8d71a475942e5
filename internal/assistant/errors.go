// Package assistant orchestrates a tenant's chat turn: intent routing,
// strategy execution against the model, site command interpretation,
// and history persistence. Failures degrade to conversational messages
// rather than propagating; stored history is never left half-written.
package assistant

// User-visible messages for degraded replies. These are conversational
// assistant messages, not errors; the caller renders them like any
// other reply.
const (
	// MsgNotConfigured is returned when no model credential is present.
	// Static and non-retryable within the session.
	MsgNotConfigured = "API Key not configured. Please check environment variables."

	// MsgServiceUnavailable is returned when a model call fails in
	// transit. The user may simply try again.
	MsgServiceUnavailable = "An error occurred while communicating with the Brand Intelligence Engine."
)
