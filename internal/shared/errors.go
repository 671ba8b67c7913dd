package shared

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindValidation        Kind = "validation"
	KindInsufficientStock Kind = "insufficient_stock"
	KindOverpayment       Kind = "overpayment"
)

// Error is a domain error carrying a classification and a caller-facing
// message. Anything not wrapped in an Error is treated as unexpected.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// HTTPStatus reports the transport status for the error kind. Domain
// packages never write HTTP responses themselves; handlers use this through
// the httpx.StatusCoder interface.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindInsufficientStock, KindOverpayment:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// NotFoundf builds a not-found error.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Invalidf builds a validation error.
func Invalidf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStockf builds a stock-shortage error. Callers must name the
// product, the current balance, and the requested amount in the message.
func InsufficientStockf(format string, args ...any) *Error {
	return &Error{Kind: KindInsufficientStock, Message: fmt.Sprintf(format, args...)}
}

// Overpaymentf builds an overpayment error. The message carries the
// remaining balance.
func Overpaymentf(format string, args ...any) *Error {
	return &Error{Kind: KindOverpayment, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}
