package extract

import "fmt"

// ServiceError indicates a network or API level failure. It is retried at
// the per-chunk boundary and never propagates past it.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("extraction service error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// MalformedResponseError indicates a response that could not be parsed even
// after repair.
type MalformedResponseError struct {
	Reason string
	Raw    string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed extraction response: %s (raw: %s)", e.Reason, truncate(e.Raw, 200))
}

// ValidationError marks a single record that failed schema validation.
// The record is skipped, not retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record: %s: %s", e.Field, e.Reason)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
