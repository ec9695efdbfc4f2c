package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches domain errors by code so that errors built with the helpers
// below still satisfy errors.Is against the predefined values.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// WithMessage copies domainErr with a request-specific message.
func WithMessage(domainErr *DomainError, format string, args ...any) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

// NotFound returns a NOT_FOUND error with a descriptive message,
// e.g. NotFound("Place not found with id of %s", id).
func NotFound(format string, args ...any) *DomainError {
	return WithMessage(ErrNotFound, format, args...)
}

// InvalidInput returns an INVALID_INPUT error carrying err's text as message.
func InvalidInput(err error) *DomainError {
	return &DomainError{Code: ErrInvalidInput.Code, Message: err.Error(), Err: err}
}

// Forbidden returns a FORBIDDEN error with a descriptive message.
func Forbidden(format string, args ...any) *DomainError {
	return WithMessage(ErrForbidden, format, args...)
}

// Predefined domain errors
var (
	// User errors
	ErrUserNotFound       = NewDomainError("USER_NOT_FOUND", "user not found")
	ErrEmailExists        = NewDomainError("EMAIL_EXISTS", "email already exists")
	ErrInvalidCredentials = NewDomainError("INVALID_CREDENTIALS", "invalid credentials")

	// Authentication errors
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "not authorized to access this route")
	ErrInvalidToken        = NewDomainError("INVALID_TOKEN", "invalid or expired token")
	ErrTokenExpired        = NewDomainError("TOKEN_EXPIRED", "token has expired")
	ErrInvalidRefreshToken = NewDomainError("INVALID_REFRESH_TOKEN", "invalid refresh token")
	ErrInvalidResetToken   = NewDomainError("INVALID_RESET_TOKEN", "invalid or expired reset token")
	ErrForbidden           = NewDomainError("FORBIDDEN", "not allowed to perform this action")

	// Resource errors
	ErrNotFound             = NewDomainError("NOT_FOUND", "resource not found")
	ErrPlaceNotFound        = NewDomainError("PLACE_NOT_FOUND", "place not found")
	ErrReviewNotFound       = NewDomainError("REVIEW_NOT_FOUND", "review not found")
	ErrNotificationNotFound = NewDomainError("NOTIFICATION_NOT_FOUND", "notification not found")
	ErrLocationNotFound     = NewDomainError("LOCATION_NOT_FOUND", "no location found for zipcode")
	ErrDuplicateValue       = NewDomainError("DUPLICATE_VALUE", "duplicate field value entered")
	ErrAlreadyReacted       = NewDomainError("ALREADY_REACTED", "user already reacted to this review")

	// Validation errors
	ErrInvalidInput      = NewDomainError("INVALID_INPUT", "invalid input")
	ErrValidationFailed  = NewDomainError("VALIDATION_FAILED", "validation failed")
	ErrPasswordMismatch  = NewDomainError("PASSWORD_MISMATCH", "new password and confirmation do not match")
	ErrIncorrectPassword = NewDomainError("INCORRECT_PASSWORD", "current password is incorrect")

	// System errors
	ErrInternal           = NewDomainError("INTERNAL_ERROR", "internal server error")
	ErrUpstream           = NewDomainError("UPSTREAM_ERROR", "upstream service failure")
	ErrServiceUnavailable = NewDomainError("SERVICE_UNAVAILABLE", "service unavailable")
)

// ServerErrorMessage is the only message clients see for 5xx responses.
const ServerErrorMessage = "Server Error"

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	return http.StatusInternalServerError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	// 400 Bad Request
	case "INVALID_INPUT", "VALIDATION_FAILED", "DUPLICATE_VALUE",
		"PASSWORD_MISMATCH", "ALREADY_REACTED", "INVALID_RESET_TOKEN":
		return http.StatusBadRequest

	// 401 Unauthorized
	case "UNAUTHORIZED", "INVALID_CREDENTIALS", "INVALID_TOKEN",
		"TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN", "INCORRECT_PASSWORD":
		return http.StatusUnauthorized

	// 403 Forbidden
	case "FORBIDDEN":
		return http.StatusForbidden

	// 404 Not Found
	case "NOT_FOUND", "USER_NOT_FOUND", "PLACE_NOT_FOUND", "REVIEW_NOT_FOUND",
		"NOTIFICATION_NOT_FOUND", "LOCATION_NOT_FOUND":
		return http.StatusNotFound

	// 409 Conflict
	case "EMAIL_EXISTS":
		return http.StatusConflict

	// 503 Service Unavailable
	case "SERVICE_UNAVAILABLE":
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to send to clients: the domain message
// for 4xx errors, ServerErrorMessage otherwise.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	if ToHTTPStatus(err) >= http.StatusInternalServerError {
		return ServerErrorMessage
	}
	return GetErrorMessage(err)
}

// GetErrorMessage safely extracts error message
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}
