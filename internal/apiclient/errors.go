package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GenericMessage is shown when a failure carries no usable server message.
const GenericMessage = "Request failed, please try again"

// APIError is a non-2xx response from the REST backend.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *APIError) Error() string {
	msg := e.Message
	if strings.TrimSpace(msg) == "" {
		msg = GenericMessage
	}
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, msg)
}

// Unauthorized reports whether the response forced a logout.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// Message returns a display string for err: the server message when the
// error is an APIError that carried one, fallback otherwise.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	if fallback == "" {
		return GenericMessage
	}
	return fallback
}

// HasCode reports whether err is an APIError with the given error code.
func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// decodeError understands {error:{code,message,details}}, {error:"msg"} and
// {message:"msg"}. Message stays empty for any other body.
func decodeError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var env struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		var structured struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Details any    `json:"details"`
		}
		var plain string
		switch {
		case len(env.Error) > 0 && json.Unmarshal(env.Error, &structured) == nil:
			apiErr.Code = structured.Code
			apiErr.Message = structured.Message
			apiErr.Details = structured.Details
		case len(env.Error) > 0 && json.Unmarshal(env.Error, &plain) == nil:
			apiErr.Message = plain
		}
		if apiErr.Message == "" {
			apiErr.Message = env.Message
		}
	}
	return apiErr
}
