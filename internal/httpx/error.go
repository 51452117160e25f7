package httpx

import (
	"errors"
	"fmt"
)

// Kind classifies request failures.
type Kind int

const (
	// KindNetwork covers DNS, connection and other transport failures.
	// Status is always 0.
	KindNetwork Kind = iota

	// KindTimeout is a client-side timeout. Status is the synthetic 408.
	KindTimeout

	// KindStatus is a completed request with a non-success HTTP status.
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Error is returned for every failed request. Callers branch on Status
// (e.g. 422 validation, 429 rate-limit) or on Kind via errors.As.
type Error struct {
	Kind    Kind
	Status  int
	Data    any    // parsed response body: JSON value, or raw text fallback
	Message string // explicit message; if empty, derived from Data
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if m := e.DataMessage(); m != "" {
		return m
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// DataMessage returns the server-provided "message" field from the parsed
// body, or an empty string if the body has none.
func (e *Error) DataMessage() string {
	if m, ok := e.Data.(map[string]any); ok {
		if s, ok := m["message"].(string); ok {
			return s
		}
	}
	return ""
}

// StatusOf extracts the HTTP status carried by err, or -1 if err is not
// an *Error.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return -1
}

// IsStatus reports whether err is an *Error with the given status.
func IsStatus(err error, status int) bool {
	return StatusOf(err) == status
}
