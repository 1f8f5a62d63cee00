package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error is a failed backend response. Message carries the server-provided
// message when the body had one, so handlers can surface it to the user.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

// IsNotFound reports whether err is a backend 404. Missing reorder targets
// are treated the same as any other transport failure by callers; this only
// exists for log diagnostics.
func IsNotFound(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.Status == http.StatusNotFound
}

func errorFromResponse(resp *http.Response) error {
	be := &Error{Status: resp.StatusCode}

	// Limit the read: error bodies are small, anything else is garbage.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return be
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			be.Message = payload.Message
		} else {
			be.Message = payload.Error
		}
	}
	return be
}
