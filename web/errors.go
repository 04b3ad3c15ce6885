package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/cshum/magick"
)

var (
	// ErrNotFound not found error
	ErrNotFound = NewError("not found", http.StatusNotFound)
	// ErrInvalid syntactic invalid path error
	ErrInvalid = NewError("invalid", http.StatusBadRequest)
	// ErrMethodNotAllowed method not allowed error
	ErrMethodNotAllowed = NewError("method not allowed", http.StatusMethodNotAllowed)
	// ErrSignatureMismatch URL signature mismatch error
	ErrSignatureMismatch = NewError("url signature mismatch", http.StatusForbidden)
	// ErrTimeout timeout error
	ErrTimeout = NewError("timeout", http.StatusRequestTimeout)
	// ErrExpired expire error
	ErrExpired = NewError("expired", http.StatusGone)
	// ErrUnsupportedFormat unsupported format error
	ErrUnsupportedFormat = NewError("unsupported format", http.StatusNotAcceptable)
	// ErrMaxSizeExceeded maximum size exceeded error
	ErrMaxSizeExceeded = NewError("maximum size exceeded", http.StatusBadRequest)
	// ErrMaxResolutionExceeded maximum resolution exceeded error
	ErrMaxResolutionExceeded = NewError("maximum resolution exceeded", http.StatusUnprocessableEntity)
	// ErrInternal internal error
	ErrInternal = NewError("internal error", http.StatusInternalServerError)
	// ErrPass loader or processor passing the request to the next one
	ErrPass = errors.New("magick: pass")
)

const errPrefix = "magick:"

var errMsgRegexp = regexp.MustCompile(fmt.Sprintf("^%s ([0-9]+) (.*)$", errPrefix))

// Error HTTP error convention
type Error struct {
	Message string `json:"message,omitempty"`
	Code    int    `json:"status,omitempty"`
}

type timeoutErr interface {
	Timeout() bool
}

// Error implements error
func (e Error) Error() string {
	return fmt.Sprintf("%s %d %s", errPrefix, e.Code, e.Message)
}

// Timeout indicates if error is timeout
func (e Error) Timeout() bool {
	return e.Code == http.StatusRequestTimeout || e.Code == http.StatusGatewayTimeout
}

// NewError creates Error from message and status code
func NewError(msg string, code int) Error {
	return Error{Message: msg, Code: code}
}

// NewErrorFromStatusCode creates Error solely from status code
func NewErrorFromStatusCode(code int) Error {
	return NewError(http.StatusText(code), code)
}

// WrapError wraps Go error into Error
func WrapError(err error) Error {
	if err == nil {
		return ErrInternal
	}
	var e Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, ErrPass) {
		// passed till the end means nothing could handle it
		return ErrUnsupportedFormat
	}
	var argErr *magick.ArgumentError
	if errors.As(err, &argErr) {
		return NewError(argErr.Error(), http.StatusBadRequest)
	}
	var ex *magick.Exception
	if errors.As(err, &ex) {
		msg := strings.ReplaceAll(ex.Error(), "\n", "")
		switch ex.Severity {
		case magick.MissingDelegateError, magick.MissingDelegateFatalError:
			return NewError(msg, http.StatusNotAcceptable)
		case magick.ResourceLimitError, magick.ResourceLimitFatalError:
			return ErrMaxResolutionExceeded
		}
		return NewError(msg, http.StatusUnprocessableEntity)
	}
	if e, ok := err.(timeoutErr); ok && e.Timeout() {
		return ErrTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if match := errMsgRegexp.FindStringSubmatch(err.Error()); len(match) == 3 {
		code, _ := strconv.Atoi(match[1])
		return NewError(match[2], code)
	}
	msg := strings.ReplaceAll(err.Error(), "\n", "")
	return NewError(msg, http.StatusInternalServerError)
}
