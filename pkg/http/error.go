package lhttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// HttpError is returned by the client base for transport failures (Err set) and for non-2xx responses
// (Code and Message set, Message holding the raw response body). Both may be set when a status was
// mapped to a sentinel error.
type HttpError struct {
	Code    int
	Message string
	Err     error
}

func FromError(err error) *HttpError {
	if err == nil {
		return nil
	}

	// Own type, possibly wrapped
	var herr *HttpError
	if errors.As(err, &herr) {
		return herr
	}

	return &HttpError{Err: err}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("got code %d and message \"%s\"", e.Code, e.Message)
}

func (e *HttpError) Unwrap() error {
	return e.Err
}

func (e *HttpError) Clone() *HttpError {
	if e == nil {
		return nil
	}
	return &HttpError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
	}
}

// IsTransport reports whether the request never produced an HTTP response (network failure, timeout).
func (e *HttpError) IsTransport() bool {
	return e.Err != nil && e.Code == 0
}

type errorBody struct {
	Error string `json:"error"`
}

// WriteResponse renders the error as a JSON body. Transport failures map to 502 since they come from
// the upstream side of the gateway.
func (e *HttpError) WriteResponse(w http.ResponseWriter) {
	code := e.Code
	message := e.Message
	if e.IsTransport() {
		code = http.StatusBadGateway
		message = e.Err.Error()
	}
	if code == 0 {
		code = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message})
}

func (e *HttpError) WithPayload(payload string) *HttpError {
	e.Message = payload
	return e
}

func NewNotFound(message string) *HttpError {
	return &HttpError{Code: http.StatusNotFound, Message: message}
}

func NewBadGateway(message string) *HttpError {
	return &HttpError{Code: http.StatusBadGateway, Message: message}
}

func NewBadRequest(message string) *HttpError {
	return &HttpError{Code: http.StatusBadRequest, Message: message}
}

func NewUnauthorized(message string) *HttpError {
	return &HttpError{Code: http.StatusUnauthorized, Message: message}
}

func NewInternalError(message string) *HttpError {
	return &HttpError{Code: http.StatusInternalServerError, Message: message}
}
