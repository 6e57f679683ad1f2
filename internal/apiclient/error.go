package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is a non-2xx response from the remote API. Messages holds the
// server-supplied message list when one was present.
type Error struct {
	Status   int
	Messages []string
}

func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, strings.Join(e.Messages, "; "))
}

// IsAuth reports whether err is a 401 from the API, meaning the session
// credential is missing, invalid or expired.
func IsAuth(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsValidation reports whether err is a non-auth 4xx carrying messages the
// user can act on.
func IsValidation(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) &&
		apiErr.Status >= 400 && apiErr.Status < 500 &&
		apiErr.Status != http.StatusUnauthorized
}

// IsServer reports whether err is a 5xx.
func IsServer(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status >= 500
}

// Messages returns the server message list from err, or a single generic
// message when none is available.
func Messages(err error) []string {
	var apiErr *Error
	if errors.As(err, &apiErr) && len(apiErr.Messages) > 0 {
		return apiErr.Messages
	}
	return []string{"operation failed"}
}

// errorEnvelope covers the two message shapes the remote API uses:
// {"message": "..."} and {"message": ["...", ...]}.
type errorEnvelope struct {
	Message json.RawMessage `json:"message"`
}

func parseError(status int, raw []byte) *Error {
	apiErr := &Error{Status: status}

	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Message) == 0 {
		return apiErr
	}

	var list []string
	if err := json.Unmarshal(envelope.Message, &list); err == nil {
		apiErr.Messages = list
		return apiErr
	}
	var single string
	if err := json.Unmarshal(envelope.Message, &single); err == nil && single != "" {
		apiErr.Messages = []string{single}
	}
	return apiErr
}
