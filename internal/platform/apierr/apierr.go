package apierr

import (
	"fmt"
	"net/http"
)

// Error carries the HTTP status and machine-readable code a failure should
// surface with at the handler edge. Service sentinels that have a fixed
// mapping are translated in the handlers package; Error is for failures whose
// status is decided at the point they occur.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// BadRequest tags err as a client fault.
func BadRequest(code string, err error) *Error {
	return New(http.StatusBadRequest, code, err)
}

// NotFound tags err as a missing-resource fault.
func NotFound(code string, err error) *Error {
	return New(http.StatusNotFound, code, err)
}
