package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
)

// DomainError represents a structured error with additional context.
// Code distinguishes sentinels that share a Type, such as InvalidToken and
// StaleSession, which both surface as 401.
type DomainError struct {
	Type    ErrorType
	Code    string
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Type, and on Code when the target carries one
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if e.Type != t.Type {
		return false
	}
	return t.Code == "" || e.Code == t.Code
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

func newCodedError(errType ErrorType, code, message string) *DomainError {
	e := NewDomainError(errType, message, nil)
	e.Code = code
	return e
}

// Wrap returns a copy of sentinel carrying err as its cause, so errors.Is
// still matches the sentinel.
func Wrap(sentinel *DomainError, err error) *DomainError {
	e := NewDomainError(sentinel.Type, sentinel.Message, err)
	e.Code = sentinel.Code
	return e
}

var (
	ErrDuplicateIdentity   = newCodedError(ErrorTypeConflict, "duplicate_identity", "account already exists")
	ErrInvalidCredentials  = newCodedError(ErrorTypeUnauthorized, "invalid_credentials", "invalid email or password")
	ErrInvalidToken        = newCodedError(ErrorTypeUnauthorized, "invalid_token", "invalid or expired token")
	ErrStaleSession        = newCodedError(ErrorTypeUnauthorized, "stale_session", "session is no longer valid")
	ErrUnsupportedProvider = newCodedError(ErrorTypeValidation, "unsupported_provider", "unsupported login provider")
	ErrMalformedProfile    = newCodedError(ErrorTypeExternal, "malformed_profile", "provider returned an incomplete profile")
	ErrUserNotFound        = newCodedError(ErrorTypeNotFound, "user_not_found", "user not found")
	ErrInvalidInput        = newCodedError(ErrorTypeValidation, "invalid_input", "invalid input")
)

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorCode returns the Code of a domain error, or empty string
func GetErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapExternal wraps an error as an external provider error
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}
