package datasource

import (
	"fmt"
	"strings"
)

// ErrSessionExpired is returned when the backend rejects the credentials of a request.
var ErrSessionExpired = fmt.Errorf("session expired")

// InvocationError carries the backend's answer to a failed entrypoint invocation untouched.
type InvocationError struct {
	Path       string
	StatusCode int
	Body       []byte
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invocation of %s failed with status %d: %s", e.Path, e.StatusCode, string(e.Body))
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every problem of a request DTO. It is raised before any network call.
type ValidationError struct {
	Kind   string       `json:"kind"`
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Kind, strings.Join(parts, "; "))
}
