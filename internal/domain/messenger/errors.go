// internal/domain/messenger/errors.go
package messenger

import (
	"errors"
	"fmt"
)

// FailureKind is the closed classification of messaging-platform failures.
// Modeled as a tagged variant rather than string-matching error messages so
// callers can switch exhaustively.
type FailureKind string

const (
	// FailureNone means the attempt succeeded.
	FailureNone FailureKind = ""

	// FailureRecipientUnavailable: the platform reports the recipient has
	// blocked the bot or deleted the conversation. Permanent for this
	// recipient; never retried.
	FailureRecipientUnavailable FailureKind = "recipient_unavailable"

	// FailureTransient: network failure, rate limiting, 5xx. Eligible for a
	// bounded retry inside the transport.
	FailureTransient FailureKind = "transient"

	// FailureRequest: malformed payload or invalid recipient id. Not
	// retryable; flagged distinctly in logs since it may indicate a bug
	// rather than an external condition.
	FailureRequest FailureKind = "request"
)

// SendError wraps a platform error with its classification.
type SendError struct {
	Kind FailureKind
	Err  error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("messenger: %s: %v", e.Kind, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// NewSendError builds a classified transport error.
func NewSendError(kind FailureKind, err error) *SendError {
	return &SendError{Kind: kind, Err: err}
}

// ClassifyError extracts the FailureKind from err. Errors that did not come
// out of a transport adapter are treated as transient, the safest default for
// an external call.
func ClassifyError(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var se *SendError
	if errors.As(err, &se) {
		return se.Kind
	}
	return FailureTransient
}
