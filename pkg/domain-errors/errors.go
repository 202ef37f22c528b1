// Package domainerrors provides coded errors for the registry core.
//
// Services return these so transports can map outcomes to wire responses
// without string matching. Infrastructure facts (missing rows, closed
// connections) live in pkg/platform/sentinel; services translate them into
// coded errors at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies the failure class of an operation.
type Code string

const (
	// CodeNotFound: the referenced page does not exist.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized: the caller lacks the required ownership or role.
	CodeUnauthorized Code = "unauthorized"
	// CodeBlocked: the caller is blacklisted.
	CodeBlocked Code = "blocked"

	// Malformed input.
	CodeInvalidTarget   Code = "invalid_target"
	CodeInvalidName     Code = "invalid_name"
	CodeEmptyName       Code = "empty_name"
	CodeInvalidTerm     Code = "invalid_term"
	CodeInvalidDiscount Code = "invalid_discount"

	// Reservation-state conflicts.
	CodeAlreadyReserved Code = "already_reserved"
	CodeNotReserved     Code = "not_reserved"

	// Value conflicts.
	CodeInsufficientPayment Code = "insufficient_payment"
	CodeInsufficientBalance Code = "insufficient_balance"
	CodeTransferFailed      Code = "transfer_failed"

	// Transport and infrastructure.
	CodeBadRequest Code = "bad_request"
	CodeTimeout    Code = "timeout"
	CodeInternal   Code = "internal"
)

// Error is a coded domain error. The code is the contract; the message is
// for humans and logs.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with a static message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost coded error in the chain, or
// CodeInternal when the error carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
