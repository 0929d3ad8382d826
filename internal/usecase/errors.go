package usecase

import (
	"errors"
	"fmt"

	"pointing-poker/internal/repository"
)

type ErrorCode string

const (
	ErrorInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrorNotFound           ErrorCode = "NOT_FOUND"
	ErrorSessionClosed      ErrorCode = "SESSION_CLOSED"
	ErrorInconsistentState  ErrorCode = "INCONSISTENT_STATE"
	ErrorBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	ErrorInternal           ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// storeError classifies a session store failure. Inconsistent partitions are
// reported distinctly; everything else is a backend failure passed through as-is.
func storeError(reason string, err error) *Error {
	if errors.Is(err, repository.ErrInconsistentState) {
		return newError(ErrorInconsistentState, reason, err)
	}
	return newError(ErrorBackendUnavailable, reason, err)
}

// CodeOf returns the code carried by err, or ErrorInternal when err is not a *Error.
func CodeOf(err error) ErrorCode {
	var ue *Error
	if errors.As(err, &ue) && ue != nil {
		return ue.Code
	}
	return ErrorInternal
}
