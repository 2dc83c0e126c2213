// Package secretmanager provides the error types returned by the adaptor.
//
// Every failure that crosses back to the caller is an *Error. Errors are not
// classified by service condition at this layer: the originating error is kept
// as the cause so callers can inspect it with errors.Is, errors.As or
// APIErrorCode.
package secretmanager

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// ErrorKind identifies the lifecycle phase an Error came from.
// Kinds are string-based for debuggability and natural JSON serialization.
type ErrorKind string

const (
	// KindConfiguration indicates Init failed to build the client.
	KindConfiguration ErrorKind = "CONFIGURATION_ERROR"

	// KindOperation indicates a describe-secret or get-secret-value request failed.
	KindOperation ErrorKind = "OPERATION_ERROR"

	// KindShutdown indicates Close failed to release the client's resources.
	KindShutdown ErrorKind = "SHUTDOWN_ERROR"
)

var (
	// ErrNotInitialized is the cause when an operation runs on a client
	// without a live handle, either before Init or after Close.
	ErrNotInitialized = errors.New("client is not initialized")

	// ErrInvalidRequest is the cause when a request is structurally unusable,
	// for example an empty secret ID.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNilExecutor is returned by NewClient when no executor is supplied.
	ErrNilExecutor = errors.New("executor cannot be nil")
)

// Error is the single caller-facing error shape.
// Message is human readable and already includes the cause's text; Cause is
// the original failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// APIErrorCode returns the AWS service error code found in err's chain, such
// as "ResourceNotFoundException".
func APIErrorCode(err error) (string, bool) {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode(), true
	}
	return "", false
}

const (
	initErrorFormat  = "Error occurred while initializing the AWS secret manager client: %s"
	closeErrorFormat = "Error occurred while closing the AWS secret manager client: %s"
	opErrorFormat    = "Error occurred while executing %s request: %s"
)

func newInitError(cause error) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Message: fmt.Sprintf(initErrorFormat, cause),
		Cause:   cause,
	}
}

func newCloseError(cause error) *Error {
	return &Error{
		Kind:    KindShutdown,
		Message: fmt.Sprintf(closeErrorFormat, cause),
		Cause:   cause,
	}
}

// normalizeError wraps any failure of op uniformly.
func normalizeError(op operation, cause error) *Error {
	return &Error{
		Kind:    KindOperation,
		Message: fmt.Sprintf(opErrorFormat, op, cause),
		Cause:   cause,
	}
}

// panicError converts a recovered panic value into an error cause.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
