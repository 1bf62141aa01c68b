// Package apierr carries an HTTP status and a stable machine-readable
// code alongside a wrapped error, so services can classify failures
// without importing the HTTP layer.
package apierr

import (
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// NotFound is the 404 shorthand used by services looking up deals,
// jobs, and promotion runs by id.
func NotFound(code string, err error) *Error {
	return New(http.StatusNotFound, code, err)
}

// BadRequest is the 400 shorthand for caller-supplied input the
// service refuses (malformed ids, misordered thresholds).
func BadRequest(code string, err error) *Error {
	return New(http.StatusBadRequest, code, err)
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil:
		return e.Err.Error()
	case e.Code != "":
		return e.Code
	case e.Status != 0:
		return fmt.Sprintf("api error (%d)", e.Status)
	default:
		return "api error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the carried status, defaulting to 500 when the
// error was built without one.
func (e *Error) HTTPStatus() int {
	if e == nil || e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}
