package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name:    "error with wrapped error",
			err:     &DomainError{Type: ErrorTypeNotFound, Message: "user not found", Err: errors.New("db error")},
			wantMsg: "not_found: user not found (db error)",
		},
		{
			name:    "error without wrapped error",
			err:     &DomainError{Type: ErrorTypeValidation, Message: "invalid input"},
			wantMsg: "validation: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same sentinel", ErrStaleSession, ErrStaleSession, true},
		{"same type different code", ErrStaleSession, ErrInvalidToken, false},
		{"same type different code reversed", ErrInvalidToken, ErrStaleSession, false},
		{"different type", ErrDuplicateIdentity, ErrInvalidCredentials, false},
		{"uncoded target matches by type", ErrInvalidCredentials, NewDomainError(ErrorTypeUnauthorized, "x", nil), true},
		{"wrapped sentinel", fmt.Errorf("login: %w", ErrInvalidCredentials), ErrInvalidCredentials, true},
		{"wrap keeps code", Wrap(ErrUserNotFound, errors.New("gone")), ErrUserNotFound, true},
		{"plain error", errors.New("boom"), ErrInvalidToken, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeConflict, GetErrorType(ErrDuplicateIdentity))
	assert.Equal(t, ErrorTypeUnauthorized, GetErrorType(ErrStaleSession))
	assert.Equal(t, ErrorTypeUnauthorized, GetErrorType(fmt.Errorf("wrapped: %w", ErrInvalidToken)))
	assert.Equal(t, ErrorTypeValidation, GetErrorType(ErrUnsupportedProvider))
	assert.Equal(t, ErrorTypeNotFound, GetErrorType(ErrUserNotFound))
	assert.Equal(t, ErrorTypeExternal, GetErrorType(ErrMalformedProfile))
	assert.Equal(t, ErrorTypeInternal, GetErrorType(WrapInternal("db", errors.New("down"))))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))

	assert.Equal(t, "stale_session", GetErrorCode(ErrStaleSession))
	assert.Equal(t, "", GetErrorCode(errors.New("plain")))
	assert.Equal(t, ErrorType(""), GetErrorType(nil))
}

func TestWrap(t *testing.T) {
	cause := errors.New("row vanished")
	err := Wrap(ErrUserNotFound, cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, ErrUserNotFound.Err, "sentinel must not be mutated")
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "bad", nil).WithDetail("field", "email")
	assert.Equal(t, "email", GetErrorDetails(err)["field"])
	assert.Nil(t, GetErrorDetails(errors.New("plain")))
}
