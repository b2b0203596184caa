package serverutils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorKind is the failure taxonomy shared by every adapter. Handlers never
// map errors themselves; they return an *AppError and the error middleware
// turns the kind into a status code.
type ErrorKind int

const (
	KindUnauthorized ErrorKind = iota
	KindInvalidArgument
	KindNotFound
	KindStoreUnavailable
	KindProviderError
	KindUnconfigured
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindStoreUnavailable:
		return "store_unavailable"
	case KindProviderError:
		return "provider_error"
	case KindUnconfigured:
		return "unconfigured"
	case KindCancelled:
		return "cancelled"
	}
	return "unknown"
}

// StatusCode maps a kind to its HTTP status. Cancellation is user intent,
// not a server fault; 499 follows the nginx convention for client-closed
// requests.
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	case KindInvalidArgument:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	case KindCancelled:
		return 499
	default:
		return fiber.StatusInternalServerError
	}
}

type AppError struct {
	Kind    ErrorKind
	Message string
	Detail  string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(kind ErrorKind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func Unauthorized(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func InvalidArgument(message string) *AppError {
	return &AppError{Kind: KindInvalidArgument, Message: message}
}

func NotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func StoreUnavailable(cause error) *AppError {
	return &AppError{Kind: KindStoreUnavailable, Message: "storage backend unavailable", Detail: detailOf(cause), Cause: cause}
}

func ProviderError(message string, cause error) *AppError {
	return &AppError{Kind: KindProviderError, Message: message, Detail: detailOf(cause), Cause: cause}
}

func Unconfigured(message string) *AppError {
	return &AppError{Kind: KindUnconfigured, Message: message}
}

func Cancelled(message string) *AppError {
	return &AppError{Kind: KindCancelled, Message: message}
}

func detailOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// AsAppError extracts an *AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
