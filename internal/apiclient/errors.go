package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

var (
	// ErrUnauthenticated means no usable token exists and no refresh was possible
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrSessionExpired means the server kept answering 401 after a refresh; the session was cleared
	ErrSessionExpired = errors.New("session expired")
	// ErrBodyConflict is returned when both a raw body and a JSON payload are supplied
	ErrBodyConflict = errors.New("raw body and JSON payload are mutually exclusive")
)

// RequestError is a non-2xx answer other than an unrecoverable 401
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

// errorMessage extracts a human-readable message from an error body, checking
// detail (string), detail[0].msg, error.message, then the status text.
func errorMessage(body []byte, statusCode int, status string) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		if raw, ok := fields["detail"]; ok {
			var detail string
			if err := json.Unmarshal(raw, &detail); err == nil && detail != "" {
				return detail
			}
			var list []struct {
				Msg string `json:"msg"`
			}
			if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 && list[0].Msg != "" {
				return list[0].Msg
			}
		}
		if raw, ok := fields["error"]; ok {
			var nested struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(raw, &nested); err == nil && nested.Message != "" {
				return nested.Message
			}
		}
	}

	return statusText(statusCode, status)
}

// statusText prefers the reason phrase the server sent
func statusText(statusCode int, status string) string {
	text := strings.TrimSpace(strings.TrimPrefix(status, strconv.Itoa(statusCode)))
	if text != "" {
		return text
	}
	if text = http.StatusText(statusCode); text != "" {
		return text
	}
	return fmt.Sprintf("request failed with status %d", statusCode)
}
