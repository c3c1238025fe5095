package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/RoNRiShaV/dfd/internal/model"
)

// Error is returned by every Client operation that fails. It matches the
// model kind sentinels with errors.Is and also unwraps to its cause.
type Error struct {
	Op     string          // Operation, e.g. "get report"
	Status int             // HTTP status, 0 when no response was received
	Kind   model.ErrorKind // Classification
	Err    error           // Underlying cause
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the kind sentinel and the cause
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.Sentinel()}
	}
	return []error{e.Kind.Sentinel(), e.Err}
}

func transportError(op string, err error) *Error {
	return &Error{Op: op, Kind: model.KindTransportError, Err: err}
}

// statusError classifies a non-2xx response
func statusError(op string, status int, body []byte) *Error {
	kind := model.KindServiceError
	if status == 404 {
		kind = model.KindNotFound
	}
	return &Error{Op: op, Status: status, Kind: kind, Err: fmt.Errorf("%s", errorDetail(body, status))}
}

// errorDetail extracts the backend's {"detail": ...} message, falling back to
// a trimmed body prefix
func errorDetail(body []byte, status int) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != nil {
		switch d := payload.Detail.(type) {
		case string:
			return d
		default:
			if b, err := json.Marshal(d); err == nil {
				return string(b)
			}
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	if text == "" {
		return fmt.Sprintf("unexpected status %d", status)
	}
	return text
}
