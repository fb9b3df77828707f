// Package httperror carries failures of calls against the menu API together
// with enough context (status, code, server detail) for the caller to decide
// what to show.
package httperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error is returned by every remote call. Status is zero when the request
// never produced a response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(status int, code, message string, details any) *Error {
	return &Error{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func BadRequest(code, message string, details any) *Error {
	return New(http.StatusBadRequest, code, message, details)
}

func UnprocessableEntity(code, message string, details any) *Error {
	return New(http.StatusUnprocessableEntity, code, message, details)
}

func NotFound(code, message string, details any) *Error {
	return New(http.StatusNotFound, code, message, details)
}

func InternalServerError(code, message string, details any) *Error {
	return New(http.StatusInternalServerError, code, message, details)
}

// Transport wraps a failure that happened before any response was read.
func Transport(code, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Kind groups errors by how the UI should react to them.
type Kind int

const (
	KindUnknown Kind = iota
	// KindTransport: network unreachable, timeout or 5xx. Show a generic failure.
	KindTransport
	// KindValidation: the payload was rejected. Show the server detail, keep the form.
	KindValidation
	// KindStaleReference: the addressed entity no longer exists server-side.
	KindStaleReference
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindValidation:
		return "validation"
	case KindStaleReference:
		return "stale_reference"
	default:
		return "unknown"
	}
}

func KindOf(err error) Kind {
	var httpErr *Error
	if !errors.As(err, &httpErr) {
		return KindUnknown
	}

	switch {
	case httpErr.Status == 0 || httpErr.Status >= http.StatusInternalServerError:
		return KindTransport
	case httpErr.Status == http.StatusNotFound || httpErr.Status == http.StatusGone:
		return KindStaleReference
	case httpErr.Status >= http.StatusBadRequest:
		return KindValidation
	default:
		return KindUnknown
	}
}

func IsTransport(err error) bool {
	return KindOf(err) == KindTransport
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindStaleReference
}

// serverError covers the error bodies the backend is known to send: a
// Laravel-style {message, errors} envelope, or a bare {detail} / {error}.
type serverError struct {
	Message string              `json:"message"`
	Detail  string              `json:"detail"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

// FromResponse builds an Error from a non-2xx response, extracting the
// server-provided message and field errors when the body carries them.
func FromResponse(status int, body []byte, code string) *Error {
	message := http.StatusText(status)
	var details any

	var parsed serverError
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Message != "":
			message = parsed.Message
		case parsed.Detail != "":
			message = parsed.Detail
		case parsed.Error != "":
			message = parsed.Error
		}
		if len(parsed.Errors) > 0 {
			details = parsed.Errors
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 512 {
		details = text
	}

	return New(status, code, message, details)
}

// FieldErrors flattens the per-field details of a validation error into
// "field: message" lines, sorted by field.
func FieldErrors(err error) []string {
	var httpErr *Error
	if !errors.As(err, &httpErr) {
		return nil
	}

	fields, ok := httpErr.Details.(map[string][]string)
	if !ok {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+strings.Join(fields[k], ", "))
	}
	return lines
}
