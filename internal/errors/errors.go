package errors

import (
	stderrors "errors"
	"fmt"
	"net"

	"github.com/pkg/errors"
)

var (
	// structural errors, raised before any network attempt
	ErrUnsupportedOperation = errors.New("operation not supported by protocol")
	ErrExternalCallFailed   = errors.New("external call failed")

	ErrConnectionTimeout = errors.New("connection timeout")
)

// SettingsUnresolvedError means no provider entry matched and no host/port
// override was supplied for the protocol. Raised locally, never after I/O.
type SettingsUnresolvedError struct {
	Protocol string
}

func NewSettingsUnresolved(protocol string) *SettingsUnresolvedError {
	return &SettingsUnresolvedError{Protocol: protocol}
}

func (e *SettingsUnresolvedError) Error() string {
	return fmt.Sprintf("could not determine %s server settings", e.Protocol)
}

func IsSettingsUnresolved(err error) bool {
	var target *SettingsUnresolvedError
	return stderrors.As(err, &target)
}

// TransportError covers dial, TLS, greeting and wire failures on one
// protocol leg. The protocol is carried separately so callers can attribute
// the failure without parsing the message.
type TransportError struct {
	Protocol string
	Err      error
}

func NewTransport(protocol string, err error) *TransportError {
	return &TransportError{Protocol: protocol, Err: err}
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Timeout() bool {
	var netErr net.Error
	if stderrors.As(e.Err, &netErr) && netErr.Timeout() {
		return true
	}
	return stderrors.Is(e.Err, ErrConnectionTimeout)
}

// AuthError means the remote server rejected the supplied credentials.
// Adapters classify by phase: an error from the login exchange is an
// AuthError, everything before it is transport.
type AuthError struct {
	Err error
}

func NewAuth(err error) *AuthError {
	return &AuthError{Err: err}
}

func (e *AuthError) Error() string {
	return e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func IsAuthError(err error) bool {
	var target *AuthError
	return stderrors.As(err, &target)
}

// ParseError marks a single undecodable message within a fetch batch. It is
// logged and the message dropped; it never fails the batch.
type ParseError struct {
	MessageID string
	Err       error
}

func NewParse(messageID string, err error) *ParseError {
	return &ParseError{MessageID: messageID, Err: err}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("message %s: %v", e.MessageID, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func IsUnsupportedOperation(err error) bool {
	return stderrors.Is(err, ErrUnsupportedOperation)
}

// ValidationError rejects structurally invalid input before any network
// attempt is made.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return stderrors.As(err, &target)
}
