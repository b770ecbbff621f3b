package schema

// ErrorKind classifies a failed dispatch for machine consumption.
type ErrorKind string

const (
	ErrProvider      ErrorKind = "provider_error"
	ErrTurnLimit     ErrorKind = "turn_limit_exceeded"
	ErrTimeout       ErrorKind = "timeout"
	ErrCancelled     ErrorKind = "cancelled"
	ErrConfiguration ErrorKind = "configuration_error"
	ErrInternal      ErrorKind = "internal_error"
	ErrRateLimited   ErrorKind = "rate_limited"
)

// Metadata carries per-dispatch measurements.
type Metadata struct {
	TurnCount       int   `json:"turnCount"`
	APIDurationMs   int64 `json:"apiDurationMs"`
	TotalDurationMs int64 `json:"totalDurationMs"`
}

// Result is the outcome of one full dispatch. It is always returned as a
// value, never raised: callers of the top-level entry point see no errors.
// Message is short and non-technical on failure.
type Result struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	ErrorKind ErrorKind `json:"errorKind,omitempty"`
	Metadata  *Metadata `json:"metadata,omitempty"`
}

// Failure builds a failed Result with the given kind and user-facing message.
func Failure(kind ErrorKind, message string) Result {
	return Result{Success: false, ErrorKind: kind, Message: message}
}
