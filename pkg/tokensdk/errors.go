package tokensdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/tokenkit/pkg/httpx"
)

// Error codes used in error bodies.
const (
	ErrorCodeInvalidRequest    = "invalid_request"
	ErrorCodeValidation        = "validation_error"
	ErrorCodeInvalidToken      = "invalid_token"
	ErrorCodeAccessDenied      = "access_denied"
	ErrorCodeInsufficientScope = "insufficient_scope"
	ErrorCodeRateLimited       = "rate_limit_exceeded"
	ErrorCodeServerError       = "server_error"
)

// APIError is an error response. Status is set when the server refused a
// token and holds the authorization outcome, Details when request
// validation failed.
type APIError struct {
	StatusCode  int      `json:"-"`
	Code        string   `json:"error"`
	Description string   `json:"error_description"`
	Status      string   `json:"status,omitempty"`
	Details     []string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e to w.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	// ErrInvalidRequest is returned for a body that can't be decoded.
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrServerError is returned when the server could not complete the
	// request. It is safe to retry.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// WriteValidationError writes a 400 listing every problem.
func WriteValidationError(w http.ResponseWriter, details []string) {
	httpx.WriteJSON(w, http.StatusBadRequest, ValidationErrorResponse{
		Code:    ErrorCodeValidation,
		Message: "the request failed validation",
		Details: details,
	})
}

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var raw struct {
		Error            string   `json:"error"`
		ErrorDescription string   `json:"error_description"`
		Status           string   `json:"status"`
		Code             string   `json:"code"`
		Message          string   `json:"message"`
		Details          []string `json:"details"`
	}
	if err := json.Unmarshal(body, &raw); err == nil {
		switch {
		case raw.Status != "":
			code := ErrorCodeInvalidToken
			if resp.StatusCode == http.StatusForbidden {
				code = ErrorCodeAccessDenied
			}
			return &APIError{StatusCode: resp.StatusCode, Code: code, Status: raw.Status}
		case raw.Error != "":
			return &APIError{StatusCode: resp.StatusCode, Code: raw.Error, Description: raw.ErrorDescription}
		case raw.Code != "":
			return &APIError{StatusCode: resp.StatusCode, Code: raw.Code, Description: raw.Message, Details: raw.Details}
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
