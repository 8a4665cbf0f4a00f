package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/authgate/pkg/httpx"
)

// Error messages sent by the service.
const (
	MessageUserAlreadyExists    = "User already exists"
	MessageInvalidCredentials   = "Invalid credentials"
	MessageIncorrectCredentials = "Incorrect credentials"
	MessageMissingToken         = "Missing token"
	MessageInvalidToken         = "Invalid token"
	MessageUnexpected           = "Unexpected error"
	MessageMalformedRequest     = "Malformed request"
	MessageTooManyRequests      = "Too many requests"
)

// APIError is an error response from the service. It is used by handlers to
// write responses and by the client to report them.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Is matches on status and message so errors.Is works against the
// predefined errors below.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode && e.Message == t.Message
}

// WriteError writes e as a JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, ErrorResponse{Error: e.Message})
}

var (
	ErrUserAlreadyExists = &APIError{
		StatusCode: http.StatusConflict,
		Message:    MessageUserAlreadyExists,
	}

	// ErrInvalidCredentials means the input was malformed, such as a bad
	// email address or a short password.
	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusBadRequest,
		Message:    MessageInvalidCredentials,
	}

	// ErrIncorrectCredentials means well-formed credentials did not match.
	ErrIncorrectCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Message:    MessageIncorrectCredentials,
	}

	ErrMissingToken = &APIError{
		StatusCode: http.StatusBadRequest,
		Message:    MessageMissingToken,
	}

	// ErrInvalidToken covers malformed, expired and revoked tokens alike.
	ErrInvalidToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Message:    MessageInvalidToken,
	}

	ErrUnexpected = &APIError{
		StatusCode: http.StatusInternalServerError,
		Message:    MessageUnexpected,
	}

	// ErrMalformedRequest is returned when the body is not the expected JSON.
	ErrMalformedRequest = &APIError{
		StatusCode: http.StatusUnprocessableEntity,
		Message:    MessageMalformedRequest,
	}

	ErrTooManyRequests = &APIError{
		StatusCode: http.StatusTooManyRequests,
		Message:    MessageTooManyRequests,
	}
)

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
	}
}
