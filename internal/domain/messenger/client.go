// internal/domain/messenger/client.go
package messenger

import "context"

// SendOptions carries the transport-independent options for an outgoing message.
type SendOptions struct {
	// Markdown enables the platform's lightweight markup mode.
	Markdown bool
}

// Client defines an interface for talking to a messaging platform.
// This decouples the delivery engine from the specific bot library and lets
// tests substitute a fake transport without environment mutation.
type Client interface {
	// SendMessage delivers text to the recipient and returns the platform's
	// identifier for the delivered message. Failures are classified: callers
	// can unwrap a *SendError to switch on the FailureKind.
	SendMessage(ctx context.Context, recipientID string, text string, opts *SendOptions) (messageID string, err error)

	// SendPresence shows a transient "typing" indicator. Best-effort:
	// failures are swallowed by the implementation and never surface,
	// since presence is cosmetic.
	SendPresence(recipientID string)

	// EditMessage replaces the text of a previously sent message.
	EditMessage(ctx context.Context, recipientID string, messageID string, text string, opts *SendOptions) error

	// DeleteMessage removes a previously sent message.
	DeleteMessage(ctx context.Context, recipientID string, messageID string) error

	// AckCallback acknowledges an inbound interactive callback, optionally
	// flashing a short notification text to the user.
	AckCallback(callbackID string, text string) error
}
