package response

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error is the JSON-serializable failure envelope. Message is stable and
// non-leaking; internal details belong in server-side logs only.
type Error struct {
	StatusCode int
	Message    string
	Messages   []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *Error) WithMessage(msg string) *Error {
	e.Message = msg
	return e
}

func (e *Error) AddMessages(msgs ...string) *Error {
	e.Messages = append(e.Messages, msgs...)
	return e
}

func makeError(status int) *Error {
	return &Error{
		StatusCode: status,
		Messages:   make([]string, 0),
	}
}

// -----------------------------------------------

func ErrUnexpected() *Error {
	return makeError(500).
		WithMessage("An unexpected error has occured")
}

func ErrBadRequest() *Error {
	return makeError(400).
		WithMessage("Bad request")
}

func ErrNotFound() *Error {
	return makeError(404).
		WithMessage("Requested resources not found")
}

func ErrInvalidJson() *Error {
	return ErrBadRequest().AddMessages("Invalid JSON body")
}

// -----------------------------------------------

type errorBody struct {
	Error    string   `json:"error"`
	Messages []string `json:"messages,omitempty"`
}

// WriteError writes the failure envelope with its status code
func WriteError(w http.ResponseWriter, r *http.Request, respErr *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(respErr.StatusCode)
	json.NewEncoder(w).Encode(errorBody{
		Error:    respErr.Message,
		Messages: respErr.Messages,
	})
}

// WriteResponse writes result as the JSON body with status 200
func WriteResponse(w http.ResponseWriter, r *http.Request, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}
