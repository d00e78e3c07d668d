package core

import "errors"

var (
	ErrLoginFailure         = errors.New("login failure")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrNoAccountInfo        = errors.New("cleos sign-in handler did not return any account info")
	ErrKeyNotFound          = errors.New("key not found")
	ErrNoChains             = errors.New("at least one chain must be configured")
	ErrNoRPCEndpoint        = errors.New("chain has no rpc endpoint")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token has expired")
)

// ErrorType classifies an AuthError
type ErrorType string

const (
	// ErrorTypeLogin marks failures of the login sequence
	ErrorTypeLogin ErrorType = "Login"

	// ErrorTypeUnsupported marks operations the authenticator does not implement
	ErrorTypeUnsupported ErrorType = "UnsupportedOperation"
)

// AuthError is the error surfaced to the host framework.
// It is tagged with the authenticator that raised it.
type AuthError struct {
	Message string
	Type    ErrorType
	Cause   error
	Source  string
}

func (e *AuthError) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Source == "" {
		return string(e.Type) + ": " + msg
	}
	return e.Source + ": " + string(e.Type) + ": " + msg
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// Is matches the kind sentinels so callers can use errors.Is
func (e *AuthError) Is(target error) bool {
	switch e.Type {
	case ErrorTypeLogin:
		return target == ErrLoginFailure
	case ErrorTypeUnsupported:
		return target == ErrUnsupportedOperation
	}
	return false
}

// NewLoginError wraps cause as a LoginFailure raised by source
func NewLoginError(cause error, source string) *AuthError {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &AuthError{
		Message: msg,
		Type:    ErrorTypeLogin,
		Cause:   cause,
		Source:  source,
	}
}
