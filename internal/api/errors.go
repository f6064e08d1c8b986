package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Method string
	Path   string
	Status int
	// Detail is the backend's failure message, empty if the body had none.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}

// Message returns the backend-provided failure message carried by err, or
// fallback when err carries none (transport errors, empty bodies).
func Message(err error, fallback string) string {
	var ae *APIError
	if errors.As(err, &ae) && ae.Detail != "" {
		return ae.Detail
	}
	return fallback
}

// failureBody covers the shapes the backend uses for errors: FastAPI's
// {"detail": "..."}, its validation form {"detail": [{"msg": ...}]}, and
// {"message": "..."}.
type failureBody struct {
	Detail  interface{} `json:"detail"`
	Message string      `json:"message"`
}

// parseDetail extracts a human-readable message from an error body.
func parseDetail(body []byte) string {
	var fb failureBody
	if err := sonic.ConfigStd.Unmarshal(body, &fb); err != nil {
		return ""
	}

	switch d := fb.Detail.(type) {
	case string:
		return d
	case []interface{}:
		var msgs []string
		for _, item := range d {
			if m, ok := item.(map[string]interface{}); ok {
				if msg, ok := m["msg"].(string); ok && msg != "" {
					msgs = append(msgs, msg)
				}
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	return fb.Message
}
