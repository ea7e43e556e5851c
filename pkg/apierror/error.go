package apierror

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error is an HTTP error reply. Only Message is serialized; causes are
// logged by the caller and never leave the process.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s", e.Status, e.Message)
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func Unauthorized() *Error {
	return New(http.StatusUnauthorized, "Unauthorized")
}

func InvalidBody() *Error {
	return New(http.StatusBadRequest, "Invalid request body")
}

func UnsupportedInteraction() *Error {
	return New(http.StatusBadRequest, "Unsupported interaction type")
}

func Internal() *Error {
	return New(http.StatusInternalServerError, "Internal server error")
}

// Write encodes e as {"error": "..."} with its status code.
func Write(w http.ResponseWriter, e *Error) {
	b, _ := json.Marshal(e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_, _ = w.Write(b)
}
