package confluence

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// maxErrorBody bounds how much of a non-JSON error body is kept in Error.Message.
const maxErrorBody = 512

// Typed errors used by higher layers to reason about Confluence failures.
var (
	ErrNotFound     = errors.New("confluence: not found")
	ErrConflict     = errors.New("confluence: conflict")
	ErrUnauthorized = errors.New("confluence: unauthorized")
	ErrBadRequest   = errors.New("confluence: bad request")
	ErrValueTooLong = errors.New("confluence: value too long")
)

// Error is returned for every non-2xx response. It is the generic error type of the client;
// the more specific sentinels above are reachable through errors.Is.
type Error struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
	RequestID  string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("confluence: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// Unwrap exposes the sentinel matching the status code and message.
func (e *Error) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusBadRequest && mentionsTooLong(e.Message):
		return ErrValueTooLong
	case e.StatusCode == http.StatusBadRequest:
		return ErrBadRequest
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return ErrConflict
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	default:
		return nil
	}
}

func mentionsTooLong(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "too long") || strings.Contains(lower, "exceeds maximum length")
}

// errorBody is the JSON error envelope Confluence returns.
type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Reason     string `json:"reason"`
}

// newError builds an *Error from a failed response body. Non-JSON bodies (proxies, HTML error
// pages) are kept verbatim, truncated.
func newError(status int, method, path, requestID string, body []byte) *Error {
	e := &Error{
		StatusCode: status,
		Method:     method,
		Path:       path,
		RequestID:  requestID,
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && (eb.Message != "" || eb.Reason != "") {
		e.Message = eb.Message
		if e.Message == "" {
			e.Message = eb.Reason
		}
		return e
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	e.Message = text
	return e
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound reports whether err represents a not-found condition.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err represents a conflict condition.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsUnauthorized reports whether err represents an authentication/authorization error.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// IsBadRequest reports whether the server rejected the request payload.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValueTooLong)
}

// IsValueTooLong reports whether a field exceeded its maximum length.
func IsValueTooLong(err error) bool { return errors.Is(err, ErrValueTooLong) }
