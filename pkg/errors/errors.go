package custom_error

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
)

// NotFoundError means the referenced asset, order or item is absent or not in
// the expected source location. Every move re-verifies the source row inside
// its transaction; the loser of a concurrent move lands here.
type NotFoundError struct {
	Resource string
	Ref      string
}

func (e *NotFoundError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.Ref)
}

func NewNotFoundError(resource string, ref interface{}) *NotFoundError {
	return &NotFoundError{Resource: resource, Ref: fmt.Sprintf("%v", ref)}
}

// ConflictError means the destination already holds the asset or the requested
// state transition is invalid, e.g. saving an already completed order.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

type ValidationError struct {
	Message  string
	Property string
}

func (e *ValidationError) Error() string {
	if e.Property == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Property, e.Message)
}

func NewValidationError(property, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Property: property, Message: fmt.Sprintf(format, args...)}
}

type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

func NewAuthorizationError(format string, args ...interface{}) *AuthorizationError {
	return &AuthorizationError{Message: fmt.Sprintf(format, args...)}
}

// StatusCode maps an engine error onto the HTTP status the handlers
// answer with. Anything outside the taxonomy is a 500.
func StatusCode(err error) int {
	var (
		notFound   *NotFoundError
		conflict   *ConflictError
		validation *ValidationError
		authz      *AuthorizationError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &authz):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// WrapDBError translates PostgreSQL error codes into the engine taxonomy.
// 23505 (unique violation) means the destination already holds the row,
// 23503 (foreign key violation) means the request referenced a missing row.
func WrapDBError(message, code string) error {
	switch code {
	case "23505":
		return NewConflictError("%s (code: %s)", message, code)
	case "23503":
		return NewNotFoundError("referenced resource", fmt.Sprintf("%s (code: %s)", message, code))
	default:
		return fmt.Errorf("uncategorized error occurred with code %s: %s", code, message)
	}
}

// WrapPQError classifies a driver error by its pq code when it carries one,
// otherwise wraps it unchanged.
func WrapPQError(err error, message string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return WrapDBError(message, string(pqErr.Code))
	}
	return fmt.Errorf("%s: %w", message, err)
}
