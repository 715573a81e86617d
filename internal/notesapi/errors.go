package notesapi

import (
	"encoding/json"
	"fmt"
)

// APIError is a non-2xx answer from the notes backend.
type APIError struct {
	StatusCode int
	// Message is the body's "message" string, verbatim. Empty when absent.
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("notesapi: status %d", e.StatusCode)
	}
	return fmt.Sprintf("notesapi: status %d: %s", e.StatusCode, e.Message)
}

// ServerMessage returns the backend-provided message, if any.
func (e *APIError) ServerMessage() string {
	return e.Message
}

func messageFromBody(raw []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || len(payload.Message) == 0 {
		return ""
	}
	var msg string
	if err := json.Unmarshal(payload.Message, &msg); err != nil {
		return ""
	}
	return msg
}
