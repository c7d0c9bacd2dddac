package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Veraticus/bankctl/internal/common"
)

var (
	// ErrNotAuthenticated means there is no usable session; no request was sent.
	ErrNotAuthenticated = errors.New("not logged in")
	// ErrUnauthorized means the server rejected the session with a 401.
	ErrUnauthorized = errors.New("session rejected by server")
	// ErrTransport wraps failures below HTTP, such as refused connections.
	ErrTransport = errors.New("transport failure")
)

// Error is a failed call to one of the services. StatusCode is 0 when the
// request never produced an HTTP response.
type Error struct {
	Err        error
	Message    string
	StatusCode int
}

// Error returns the server's message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the response status, or 0.
func (e *Error) HTTPStatus() int {
	return e.StatusCode
}

// UserMessage returns the text shown to the user.
func (e *Error) UserMessage() string {
	return e.Message
}

// errorBody is the services' error envelope. Message is either a string or
// a list of validation messages.
type errorBody struct {
	Message    json.RawMessage `json:"message"`
	Error      string          `json:"error"`
	StatusCode int             `json:"statusCode"`
}

func decodeError(status int, body []byte) *Error {
	apiErr := &Error{StatusCode: status}
	switch status {
	case http.StatusTooManyRequests:
		apiErr.Err = common.ErrRateLimit
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		apiErr.Err = common.ErrServiceUnavailable
	}

	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err == nil {
		apiErr.Message = decodeMessage(envelope.Message)
		if apiErr.Message == "" {
			apiErr.Message = envelope.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" || strings.HasPrefix(apiErr.Message, "<") {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func decodeMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return strings.Join(many, " - ")
	}
	return ""
}
