package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
)

// Application error codes. They map fairly directly onto HTTP status codes,
// but services return them instead of raw statuses so that the transport
// layer stays the only place that knows about HTTP.
const (
	// EINVALID is returned when the client supplied malformed or
	// incomplete data (missing required field, bad json body).
	EINVALID = "invalid"
	// EUNAUTHORIZED is returned when a request requires an authenticated
	// user and none is present.
	EUNAUTHORIZED = "unauthorized"
	// EFORBIDDEN is returned when the authenticated user is not allowed
	// to perform the operation (e.g. editing someone else's post).
	EFORBIDDEN = "forbidden"
	// ENOTFOUND is returned when a resource does not exist. The external
	// proxies also use it when an upstream search yields zero results.
	ENOTFOUND = "not_found"
	// EUNCONFIGURED is returned when a required server-side credential
	// is missing. A misconfiguration, not a client error.
	EUNCONFIGURED = "unconfigured"
	// EUPSTREAM is returned when an outbound call to a third-party API
	// fails: network error, timeout, error status, or unusable payload.
	EUPSTREAM = "upstream"
	// EINTERNAL is the catch-all for everything else.
	EINTERNAL = "internal"
)

// codes maps every application error code to an HTTP status code.
var codes = map[string]int{
	EINVALID:      http.StatusBadRequest,
	EUNAUTHORIZED: http.StatusUnauthorized,
	EFORBIDDEN:    http.StatusForbidden,
	ENOTFOUND:     http.StatusNotFound,
	EUNCONFIGURED: http.StatusInternalServerError,
	EUPSTREAM:     http.StatusBadGateway,
	EINTERNAL:     http.StatusInternalServerError,
}

// Error is an application error. Code is one of the constants above,
// Message is safe to show to an end user.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("focusfeed error: code=%s message=%s", e.Code, e.Message)
}

// Errorf returns a new Error with the given code and formatted message.
func Errorf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps the application error code of any error.
// A nil error has no code, a non-application error is EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps the human-readable message of any error. Messages
// of non-application errors are masked, they may leak internals.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "An internal error has occurred."
}

// ErrorStatusCode returns the HTTP status code for an application error code.
func ErrorStatusCode(code string) int {
	if status, ok := codes[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the json body returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ReturnError writes an error to the response as structured json, with the
// HTTP status derived from the error's code. Internal errors get logged
// before being masked.
func ReturnError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := ErrorCode(err), ErrorMessage(err)
	if code == EINTERNAL {
		LogError(r, err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ErrorStatusCode(code))
	json.NewEncoder(w).Encode(&ErrorResponse{Error: message})
}

// logf is the sink for package logging. It defaults to the stdlib logger
// and is replaced with the process logger at server construction.
var logf = log.Printf

// SetLogFunc routes this package's logging through fn, e.g. a zap sugared
// logger's Errorf. Call it once during setup, before serving requests.
func SetLogFunc(fn func(format string, args ...interface{})) {
	logf = fn
}

// LogError logs an error together with the request it occurred in.
func LogError(r *http.Request, err error) {
	logf("http error: %s %s: %s", r.Method, r.URL.Path, err)
}
